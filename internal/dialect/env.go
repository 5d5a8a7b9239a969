package dialect

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hengadev/errsx"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CSVSTREAM_"

// Environ collects CSVSTREAM_* variables from the dotenv file at path, when path is not empty,
// and then from the process environment, which takes precedence.
func Environ(path string) (map[string]string, error) {
	env := make(map[string]string)
	if path != "" {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading env file: %w", err)
		}
		for k, v := range values {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// Override returns d with the overrides in env applied. Unknown CSVSTREAM_* keys are reported
// together with malformed values.
func Override(d Dialect, env map[string]string) (Dialect, error) {
	errs := make(errsx.Map)

	for key, value := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok {
			continue
		}
		switch name {
		case "DELIMITER":
			d.Delimiter = value
		case "QUOTE":
			d.Quote = value
		case "ESCAPE":
			d.Escape = value
		case "COMMENT":
			d.Comment = value
		case "RECORD_DELIMITER":
			d.RecordDelimiter = value
		case "SAFETY_LIMIT":
			n, err := strconv.Atoi(value)
			if err != nil {
				errs.Set(key, err)
				continue
			}
			d.SafetyLimit = n
		default:
			dst := d.switchFor(name)
			if dst == nil {
				errs.Set(key, fmt.Errorf("unknown setting"))
				continue
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				errs.Set(key, err)
				continue
			}
			*dst = Bool(b)
		}
	}

	if !errs.IsEmpty() {
		return d, fmt.Errorf("environment overrides: %w", errs.AsError())
	}
	return d, nil
}

func (d *Dialect) switchFor(name string) **bool {
	switch name {
	case "TRIM":
		return &d.Trim
	case "QUALIFIER":
		return &d.Qualifier
	case "COMMENTS":
		return &d.Comments
	case "SAFETY_SWITCH":
		return &d.SafetySwitch
	case "SKIP_EMPTY":
		return &d.SkipEmpty
	case "FORCE_QUALIFIER":
		return &d.ForceQualifier
	case "CRLF":
		return &d.CRLF
	}
	return nil
}
