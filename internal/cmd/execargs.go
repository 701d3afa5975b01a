package cmd

import "fmt"

// execGroups holds the command templates split off the raw argv.
type execGroups struct {
	exec  [][]string
	batch [][]string
}

func (g *execGroups) empty() bool {
	return len(g.exec) == 0 && len(g.batch) == 0
}

// splitExecArgs removes every -x/--exec and -X/--exec-batch group from argv.
// A group runs until a ";" argument or the end of argv, so the command may
// contain arguments that look like sift flags. Everything after "--" is
// left untouched.
func splitExecArgs(argv []string) ([]string, *execGroups, error) {
	groups := &execGroups{}
	rest := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			rest = append(rest, argv[i:]...)
			break
		}

		var target *[][]string
		switch arg {
		case "-x", "--exec":
			target = &groups.exec
		case "-X", "--exec-batch":
			target = &groups.batch
		default:
			rest = append(rest, arg)
			continue
		}

		var group []string
		j := i + 1
		for ; j < len(argv) && argv[j] != ";"; j++ {
			group = append(group, argv[j])
		}
		if len(group) == 0 {
			return nil, nil, fmt.Errorf("%s requires a command", arg)
		}
		*target = append(*target, group)
		i = j
	}

	return rest, groups, nil
}
