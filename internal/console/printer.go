package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"

	"github.com/azure-sidekick/server/internal/agent/model"
)

var (
	brand   = lipgloss.Color("#0078D4")
	accent  = lipgloss.Color("#06B6D4")
	muted   = lipgloss.Color("#6B7280")
	danger  = lipgloss.Color("#EF4444")
	success = lipgloss.Color("#10B981")
)

const capabilities = `I am still being developed so please do not get frustrated if I am not able to answer all of your questions.

Currently, I can provide answers to:
- your general questions about Azure.
- your general questions about Azure Storage.
- your questions about storage accounts in your Azure subscriptions.
- your questions about a specific storage account in your Azure subscription.

Here are the commands that you can use:
- "change subscription": Use this command if you need to change the subscription.
- "clear chat history": Use this command to clear chat history.
- "toggle response mode": Use this command to toggle the response mode between streaming (default, recommended) and non-streaming.
- "cls" or "clear": Use either of these commands to clear the console.
- "help": Use this command to see help.
- "exit" or "quit": Use either of these commands to exit the application.`

const signIn = `Before you begin:
Please ensure that you have signed in to your Azure account using the Azure CLI, Azure PowerShell
or your editor. Your Azure credentials are used to fetch information about the storage accounts
in your Azure subscriptions.`

const subscriptionNameWidth = 50

// Printer renders the conversation to out.
type Printer struct {
	out io.Writer

	title  lipgloss.Style
	info   lipgloss.Style
	answer lipgloss.Style
	usage  lipgloss.Style
	err    lipgloss.Style
	header lipgloss.Style
}

func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:    out,
		title:  r.NewStyle().Foreground(brand).Bold(true),
		info:   r.NewStyle().Foreground(accent),
		answer: r.NewStyle().Foreground(success),
		usage:  r.NewStyle().Foreground(muted),
		err:    r.NewStyle().Foreground(danger).Bold(true),
		header: r.NewStyle().Bold(true),
	}
}

func (p *Printer) Clear() {
	fmt.Fprint(p.out, "\033[H\033[2J")
}

func (p *Printer) Welcome() {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.title.Render("Hello and welcome to Azure Sidekick!"))
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "I am an AI assistant that can answer questions about Azure services and resources in your Azure subscriptions.")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, capabilities)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.info.Render(signIn))
	fmt.Fprintln(p.out)
}

func (p *Printer) Help() {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.title.Render("Hi, I am Azure Sidekick!"), "I am here to answer questions about Azure resources and services in your Azure subscriptions.")
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, capabilities)
	fmt.Fprintln(p.out)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.info.Render(msg))
}

// Fragment is written unstyled so partial words never pick up stray escapes.
func (p *Printer) Fragment(text string) {
	fmt.Fprint(p.out, text)
}

func (p *Printer) EndStream() {
	fmt.Fprintln(p.out)
}

func (p *Printer) Answer(text string) {
	fmt.Fprintln(p.out, p.answer.Render(text))
}

func (p *Printer) Usage(u schema.TokenUsage, cost float64) {
	line := fmt.Sprintf("Token usage - Prompt tokens: %d; Completion tokens: %d; Total tokens: %d; Cost: $%.6f",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens, cost)
	fmt.Fprintln(p.out, p.usage.Render(line))
}

func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.out, p.err.Render(msg))
}

// Subscriptions prints subs as a numbered table, starting at 1.
func (p *Printer) Subscriptions(subs []model.Subscription) {
	fmt.Fprintln(p.out, p.header.Render(fmt.Sprintf("%-5s%-41s%s", "#", "Subscription Id", "Subscription Name")))
	fmt.Fprintln(p.out, strings.Repeat("=", 96))
	for i, s := range subs {
		name := s.DisplayName
		if r := []rune(name); len(r) > subscriptionNameWidth {
			name = string(r[:subscriptionNameWidth])
		}
		fmt.Fprintf(p.out, "%-5d%-41s%s\n", i+1, s.ID, name)
	}
}
