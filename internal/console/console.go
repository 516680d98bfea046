package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/azure-sidekick/server/internal/agent/model"
	"github.com/azure-sidekick/server/internal/agent/orchestrator"
	logx "github.com/azure-sidekick/server/pkg/logger"
)

// Console is the interactive terminal front end: liner for input with
// history, Printer for output.
type Console struct {
	*Printer
	line        *liner.State
	historyFile string
}

// New opens the terminal. historyFile may be empty to keep input history
// in memory only.
func New(historyFile string) *Console {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &Console{
		Printer:     NewPrinter(os.Stdout),
		line:        line,
		historyFile: historyFile,
	}
	c.loadHistory()
	return c
}

// ReadLine returns io.EOF when the user aborts with Ctrl+C or Ctrl+D.
func (c *Console) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *Console) PickSubscription(subs []model.Subscription) (model.Subscription, error) {
	return pick(c.Printer, c, subs)
}

// Close saves the input history and restores the terminal.
func (c *Console) Close() error {
	c.saveHistory()
	return c.line.Close()
}

func (c *Console) loadHistory() {
	if c.historyFile == "" {
		return
	}
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := c.line.ReadHistory(f); err != nil {
		logx.Debug().Err(err).Str("file", c.historyFile).Msg("input history not loaded")
	}
}

func (c *Console) saveHistory() {
	if c.historyFile == "" {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		logx.Debug().Err(err).Str("file", c.historyFile).Msg("input history not saved")
		return
	}
	defer f.Close()
	if _, err := c.line.WriteHistory(f); err != nil {
		logx.Debug().Err(err).Str("file", c.historyFile).Msg("input history not saved")
	}
}

// pick shows subs and asks until the answer is a valid row number. An
// empty answer picks the first row.
func pick(p *Printer, in orchestrator.LineReader, subs []model.Subscription) (model.Subscription, error) {
	p.Subscriptions(subs)
	ask := fmt.Sprintf("Please select a subscription by entering a number between 1 and %d. To select the first subscription from the list, just press enter.", len(subs))
	for {
		p.Info(ask)
		answer, err := in.ReadLine(orchestrator.Prompt)
		if err != nil {
			return model.Subscription{}, err
		}
		if i, ok := parseChoice(answer, len(subs)); ok {
			return subs[i], nil
		}
	}
}

func parseChoice(answer string, n int) (int, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0, n > 0
	}
	i, err := strconv.Atoi(answer)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

var (
	_ orchestrator.Presenter  = (*Console)(nil)
	_ orchestrator.Picker     = (*Console)(nil)
	_ orchestrator.LineReader = (*Console)(nil)
)
