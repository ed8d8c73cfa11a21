package shell

import (
	"fmt"
	"sort"
)

// Interpreter describes the command interpreter used on a platform.
type Interpreter struct {
	// Path is the executable name, resolved through PATH.
	Path string

	// Args are passed to the interpreter on start.
	Args []string

	// Trailer is written after the last command on platforms whose shell
	// does not exit with the last command's status once stdin is drained.
	Trailer string
}

// interpreters is the fixed platform to shell mapping, keyed by GOOS.
var interpreters = map[string]Interpreter{
	"windows": {Path: "cmd.exe", Args: []string{"/Q"}, Trailer: "exit /b %errorlevel%"},
	"darwin":  {Path: "zsh"},
	"linux":   {Path: "bash"},
}

// LookupInterpreter returns the interpreter for goos.
func LookupInterpreter(goos string) (Interpreter, error) {
	in, ok := interpreters[goos]
	if !ok {
		return Interpreter{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPlatform, goos, knownPlatforms())
	}
	in.Args = append([]string(nil), in.Args...)
	return in, nil
}

func knownPlatforms() []string {
	names := make([]string, 0, len(interpreters))
	for name := range interpreters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
