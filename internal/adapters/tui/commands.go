package tui

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/PabloGalante/chatrelay/internal/domain"
)

type commandKind int

const (
	cmdNone commandKind = iota // plain chat input
	cmdName
	cmdTemp
	cmdMax
	cmdModel
	cmdClear
	cmdQuit
	cmdHelp
)

type command struct {
	kind commandKind
	arg  string
}

const helpText = "/name <name>  /temp <0-1.5>  /max <100-2000>  /model <id>  /clear  /quit"

// parseCommand recognizes slash commands. Anything not starting with "/" is chat input.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdNone, arg: line}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "name":
		return command{kind: cmdName, arg: arg}, nil
	case "temp", "temperature":
		if arg == "" {
			return command{}, errors.New("usage: /temp <value>")
		}
		return command{kind: cmdTemp, arg: arg}, nil
	case "max", "max_tokens":
		if arg == "" {
			return command{}, errors.New("usage: /max <tokens>")
		}
		return command{kind: cmdMax, arg: arg}, nil
	case "model":
		if arg == "" {
			return command{}, errors.Errorf("usage: /model <id> (available: %s)", strings.Join(domain.AllowedModels, ", "))
		}
		return command{kind: cmdModel, arg: arg}, nil
	case "clear":
		return command{kind: cmdClear}, nil
	case "quit", "exit", "q":
		return command{kind: cmdQuit}, nil
	case "help", "?":
		return command{kind: cmdHelp}, nil
	default:
		return command{}, errors.Errorf("unknown command /%s; %s", name, helpText)
	}
}

// applySetting returns settings with the command's change applied. Range
// checks are left to Settings.Validate.
func applySetting(settings domain.Settings, c command) (domain.Settings, error) {
	switch c.kind {
	case cmdName:
		settings.UserName = c.arg
	case cmdTemp:
		v, err := strconv.ParseFloat(c.arg, 64)
		if err != nil {
			return settings, errors.Errorf("temperature %q is not a number", c.arg)
		}
		settings.Generation.Temperature = v
	case cmdMax:
		v, err := strconv.Atoi(c.arg)
		if err != nil {
			return settings, errors.Errorf("max tokens %q is not an integer", c.arg)
		}
		settings.Generation.MaxTokens = v
	case cmdModel:
		settings.Generation.Model = c.arg
	default:
		return settings, errors.Errorf("command %d does not change settings", c.kind)
	}
	return settings, nil
}
