package tui

import "strings"

// Command is a parsed ':' prompt line.
type Command struct {
	Name string
	Args []string
}

// ParseCommand parses a command line (without the leading ':'). The last
// argument of "attach" keeps its spaces, so file paths need no quoting.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}

	head, rest, _ := strings.Cut(input, " ")
	cmd := Command{Name: strings.ToLower(head)}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return cmd
	}

	if cmd.Name == "attach" {
		// attach <kind> <path>: split once more, the remainder is the path.
		kind, path, found := strings.Cut(rest, " ")
		cmd.Args = []string{kind}
		if found {
			cmd.Args = append(cmd.Args, strings.TrimSpace(path))
		}
		return cmd
	}

	cmd.Args = strings.Fields(rest)
	return cmd
}
