package core

import (
	"fmt"
	"strings"
)

// Environment is where the assistant runs. It decides the log format and
// the default log level.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"dev":   Development,
	"local": Development,
	"stage": Staging,
	"test":  Testing,
	"ci":    Testing,
	"prod":  Production,
}

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// StructuredLogs reports whether logs are written as JSON lines rather than
// for a human at a terminal.
func (e Environment) StructuredLogs() bool {
	return e == Production || e == Staging
}

// ParseEnvironment accepts the environment names and their short forms in
// any case. An empty value is Development.
func ParseEnvironment(v string) (Environment, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch e := Environment(v); e {
	case "":
		return Development, nil
	case Development, Staging, Testing, Production:
		return e, nil
	}
	if e, ok := environmentAliases[v]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown environment %q", v)
}

// Decode lets envconfig fill an Environment field directly.
func (e *Environment) Decode(value string) error {
	parsed, err := ParseEnvironment(value)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
