package cli

import (
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
)

// readPassword returns value when set, and otherwise asks on the terminal
// without echo.
func readPassword(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return "", goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	password, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read password")
	}
	return string(password), nil
}

func readLine(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	rl, err := readline.NewEx(&readline.Config{Prompt: prompt})
	if err != nil {
		return "", goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return "", goerr.Wrap(err, "failed to read input")
	}
	return line, nil
}
