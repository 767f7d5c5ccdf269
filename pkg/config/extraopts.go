package config

import (
	"fmt"
	"os"
	"strings"
)

const extraOptsFlag = "--extra-opts"

// ParseExtraOpts splits "[section][@file]" into its parts. The section defaults to the plugin name.
func ParseExtraOpts(spec, plugin string) (section, file string) {
	section, file, _ = strings.Cut(spec, "@")
	if section == "" {
		section = plugin
	}

	return section, file
}

// FindConfigFile returns the first existing default ini file.
func FindConfigFile() (string, error) {
	if env := os.Getenv(EnvConfigFile); env != "" {
		return env, nil
	}
	for _, file := range DefaultSearchPath {
		if _, err := os.Stat(file); err == nil {
			return file, nil
		}
	}

	return "", ErrNoConfigFile
}

// ExtraArgs returns the command line flags stored for given extra-opts specification.
func ExtraArgs(spec, plugin string) ([]string, error) {
	section, file := ParseExtraOpts(spec, plugin)
	if file == "" {
		found, err := FindConfigFile()
		if err != nil {
			return nil, err
		}
		file = found
	}

	cfg := NewConfig()
	if err := cfg.ReadINI(file); err != nil {
		return nil, err
	}

	if !cfg.HasSection(section) {
		return nil, fmt.Errorf("invalid section '%s' in config file '%s'", section, file)
	}

	args := cfg.Section(section).Args()
	log.Debugf("extra-opts %s@%s: %v", section, file, args)

	return args, nil
}

// ExpandArgs replaces every --extra-opts[=spec] in args with the options from the ini file.
// Options from ini files are put in front so the remaining command line arguments win.
func ExpandArgs(plugin string, args []string) ([]string, error) {
	extra := []string{}
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)

			break
		}

		var spec string
		switch {
		case arg == extraOptsFlag:
			// value is optional, next arg is only used if it is no flag
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				spec = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, extraOptsFlag+"="):
			spec = strings.TrimPrefix(arg, extraOptsFlag+"=")
		default:
			rest = append(rest, arg)

			continue
		}

		opts, err := ExtraArgs(spec, plugin)
		if err != nil {
			return nil, err
		}
		extra = append(extra, opts...)
	}

	return append(extra, rest...), nil
}
