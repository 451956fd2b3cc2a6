package console

// Command is one entry of the compiled-in command table.
type Command struct {
	Name string
	Help string
	Exec func(c *Console)
}

// Dispatch runs the first command, in table order, whose name matches
// token case-insensitively over exactly len(token) bytes. A token that is a
// prefix of several names therefore selects whichever is declared first.
// It reports whether a command ran.
func (c *Console) Dispatch(token []byte) bool {
	if cmd := Match(c.commands, token); cmd != nil {
		cmd.Exec(c)
		return true
	}
	return false
}

// Match returns the command Dispatch would run for token, or nil.
func Match(commands []Command, token []byte) *Command {
	if len(token) == 0 {
		return nil
	}
	for i := range commands {
		if prefixFold(commands[i].Name, token) {
			return &commands[i]
		}
	}
	return nil
}

// prefixFold compares the first len(token) bytes of name with token,
// ignoring ASCII case. A token longer than name never matches.
func prefixFold(name string, token []byte) bool {
	if len(token) > len(name) {
		return false
	}
	for i, b := range token {
		if Lower(name[i]) != Lower(b) {
			return false
		}
	}
	return true
}

// Lower returns the ASCII lower case of b. Handlers use it for their
// single-letter sub-commands.
func Lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
