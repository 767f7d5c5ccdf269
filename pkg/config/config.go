package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/consol-monitoring/checkplugins/pkg/logger"
)

const MaxLineSize = 1024 * 1024 // limit max line length to 1MB

// EnvConfigFile overrides the default search path for ini files.
const EnvConfigFile = "MP_CONFIG_FILE"

// DefaultSearchPath lists the ini files used when --extra-opts does not name a file.
var DefaultSearchPath = []string{
	"/etc/nagios/plugins.ini",
	"/etc/nagios/monitoring-plugins.ini",
	"/usr/local/nagios/etc/plugins.ini",
	"/usr/local/nagios/etc/monitoring-plugins.ini",
	"/usr/local/etc/nagios/plugins.ini",
	"/usr/local/etc/nagios/monitoring-plugins.ini",
	"/etc/opt/nagios/plugins.ini",
	"/etc/opt/nagios/monitoring-plugins.ini",
	"/etc/monitoring-plugins/plugins.ini",
	"/etc/monitoring-plugins/monitoring-plugins.ini",
}

// ErrNoConfigFile is returned if none of the default ini files exist.
var ErrNoConfigFile = errors.New("could not find a config file")

var log = logger.Log

// Option is a single key with optional value.
type Option struct {
	Key      string
	Value    string
	HasValue bool
}

// Arg returns the option as long command line flag.
func (o Option) Arg() string {
	if !o.HasValue {
		return "--" + o.Key
	}

	return fmt.Sprintf("--%s=%s", o.Key, o.Value)
}

// Config contains all sections of an ini file.
type Config struct {
	sections map[string]*Section
}

// Section contains the options of a section in the order of appearance. Keys may repeat.
type Section struct {
	name    string
	options []Option
}

func NewConfig() *Config {
	return &Config{
		sections: make(map[string]*Section, 0),
	}
}

// ReadINI opens the config file and reads all key value pairs, commented out with ";" and "#".
func (config *Config) ReadINI(iniPath string) error {
	log.Debugf("reading config: %s", iniPath)
	file, err := os.ReadFile(iniPath)
	if err != nil {
		return fmt.Errorf("%s: %s", iniPath, err.Error())
	}
	err = config.ParseINI(bytes.NewReader(file), iniPath)
	if err != nil {
		return fmt.Errorf("config error in file %s: %s", iniPath, err.Error())
	}

	return nil
}

// ParseINI reads ini style configuration and updates config object.
// it returns the first error found but still reads the hole file
func (config *Config) ParseINI(file io.Reader, iniPath string) error {
	parseErrors := []error{}
	var currentSection *Section
	lineNr := 0

	scanner := bufio.NewScanner(file)
	buffer := make([]byte, 0, MaxLineSize)
	scanner.Buffer(buffer, MaxLineSize)
	for scanner.Scan() {
		lineNr++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}

		// start of a new section
		if line[0] == '[' {
			if !strings.HasSuffix(line, "]") {
				parseErrors = append(parseErrors, fmt.Errorf("parse error in %s:%d: unclosed section", iniPath, lineNr))

				continue
			}
			currentSection = config.Section(strings.TrimSpace(line[1 : len(line)-1]))

			continue
		}

		if currentSection == nil {
			parseErrors = append(parseErrors, fmt.Errorf("parse error in %s:%d: found option outside of ini block", iniPath, lineNr))

			continue
		}

		// options without value are flags
		key, rawValue, hasValue := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			parseErrors = append(parseErrors, fmt.Errorf("parse error in %s:%d: found value without key", iniPath, lineNr))

			continue
		}

		value := ""
		if hasValue {
			parsed, err := parseString(rawValue)
			if err != nil {
				parseErrors = append(parseErrors, fmt.Errorf("config error in %s:%d: %s", iniPath, lineNr, err.Error()))

				continue
			}
			value = parsed
		}

		currentSection.options = append(currentSection.options, Option{Key: key, Value: value, HasValue: hasValue})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, fmt.Errorf("read error in %s: %s", iniPath, err.Error()))
	}

	if len(parseErrors) > 0 {
		return parseErrors[0]
	}

	return nil
}

// Section returns section by name or empty section.
func (config *Config) Section(name string) *Section {
	if section, ok := config.sections[name]; ok {
		return section
	}

	section := &Section{name: name}
	config.sections[name] = section

	return section
}

// HasSection returns true if the section exists.
func (config *Config) HasSection(name string) bool {
	_, ok := config.sections[name]

	return ok
}

// parseString removes surrounding quotes.
func parseString(val string) (string, error) {
	val = strings.TrimSpace(val)

	for _, quote := range []string{`"`, `'`} {
		if !strings.HasPrefix(val, quote) {
			continue
		}
		switch strings.Count(val, quote) {
		case 1:
			return "", fmt.Errorf("unclosed quotes")
		case 2:
			if strings.HasSuffix(val, quote) {
				val = strings.TrimPrefix(val, quote)
				val = strings.TrimSuffix(val, quote)
			}
		}
	}

	return val, nil
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// Options returns all options in order.
func (s *Section) Options() []Option {
	return s.options
}

// GetString returns the last value of given key.
func (s *Section) GetString(key string) (val string, ok bool) {
	for _, opt := range s.options {
		if opt.Key == key {
			val, ok = opt.Value, true
		}
	}

	return val, ok
}

// Args returns all options as command line flags.
func (s *Section) Args() []string {
	args := make([]string, 0, len(s.options))
	for _, opt := range s.options {
		args = append(args, opt.Arg())
	}

	return args
}
