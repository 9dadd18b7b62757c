// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/jeranaias/multichat-tui/internal/catalog"
	"github.com/jeranaias/multichat-tui/internal/export"
	"github.com/jeranaias/multichat-tui/internal/model"
	"github.com/jeranaias/multichat-tui/internal/pricing"
	"github.com/jeranaias/multichat-tui/internal/render"
	"github.com/jeranaias/multichat-tui/internal/session"
	"github.com/jeranaias/multichat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	welcomeStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	commandStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	warnStyle    = lipgloss.NewStyle().Foreground(styles.Amber)
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
)

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat loop.
type REPL struct {
	mgr       *session.Manager
	renderer  render.Renderer
	input     *Input
	exportDir string
}

// NewREPL wires the REPL. When stdout is not a terminal the renderer
// falls back to plain text so piped output stays clean.
func NewREPL(mgr *session.Manager, exportDir string) *REPL {
	var renderer render.Renderer = render.Plain{}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		style := mgr.Theme()
		if style != "dark" && style != "light" {
			style = "" // glamour auto-detection
		}
		renderer = render.NewMarkdown(style)
	}
	return &REPL{
		mgr:       mgr,
		renderer:  renderer,
		input:     NewInput(),
		exportDir: exportDir,
	}
}

// Run drives the REPL until /quit or EOF.
func (r *REPL) Run(ctx context.Context) error {
	defer r.input.Close()

	r.printWelcome()

	for {
		input, err := r.input.ReadLine(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// io.EOF from Ctrl+D ends the session.
			fmt.Println()
			return nil
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "/") {
			quit, err := r.dispatch(trimmed)
			if err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		r.send(ctx, trimmed)
	}
}

// send runs one exchange and prints the rendered response.
func (r *REPL) send(ctx context.Context, text string) {
	msg, err := r.mgr.Send(ctx, text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoModel):
			fmt.Println(errorStyle.Render("No model selected. Use /models then /model <id>."))
		case errors.Is(err, session.ErrBusy):
			fmt.Println(warnStyle.Render("Still waiting on the previous message."))
		default:
			fmt.Println(errorStyle.Render(err.Error()))
		}
		return
	}

	label := msg.Model
	if label == "" {
		label = "assistant"
	}
	fmt.Println(commandStyle.Render(label + ">"))
	fmt.Println(r.renderer.Render(msg.Content, r.terminalWidth()))
}

// terminalWidth returns the current terminal width, defaulting to 80.
func (r *REPL) terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// printWelcome prints the session banner.
func (r *REPL) printWelcome() {
	fmt.Println(welcomeStyle.Render("multichat"))
	conv := r.mgr.Current()
	if conv != nil && conv.Model != "" {
		fmt.Println(infoStyle.Render("model: " + catalog.DisplayName(conv.Model, r.mgr.Catalog())))
	}
	fmt.Println(infoStyle.Render("Type /help for commands, Ctrl+D to quit."))
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// dispatch executes a slash command. Returns true when the REPL should
// exit.
func (r *REPL) dispatch(line string) (bool, error) {
	cmd, arg := splitCommand(line)

	switch cmd {
	case "/help", "/h":
		r.printHelp()
	case "/quit", "/q", "/exit":
		return true, nil
	case "/new":
		conv := r.mgr.NewConversation()
		fmt.Println(infoStyle.Render("Started " + conv.Title))
	case "/list", "/ls":
		r.printConversations()
	case "/select":
		return false, r.selectConversation(arg)
	case "/delete", "/rm":
		return false, r.deleteConversation(arg)
	case "/model":
		return false, r.handleModel(arg)
	case "/models":
		r.printModels()
	case "/prompt":
		return false, r.handlePrompt(arg)
	case "/prompts":
		r.printPrompts()
	case "/export":
		return false, r.exportConversation()
	case "/data":
		return false, r.exportTable(arg)
	case "/status", "/s":
		r.printStatus()
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	return false, nil
}

// splitCommand separates a slash command from its argument.
func splitCommand(line string) (cmd, arg string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func (r *REPL) printHelp() {
	help := [][2]string{
		{"/new", "start a new conversation"},
		{"/list", "list conversations"},
		{"/select N", "switch to conversation N"},
		{"/delete N", "delete conversation N (asks to confirm)"},
		{"/model [id]", "show or switch the model"},
		{"/models", "list selectable models"},
		{"/prompt [id]", "show or switch the system prompt"},
		{"/prompts", "list system prompts"},
		{"/export", "export the conversation to markdown"},
		{"/data [csv|json]", "export the last response's table"},
		{"/status", "show session statistics"},
		{"/quit", "exit"},
	}
	for _, h := range help {
		fmt.Printf("  %s %s\n",
			commandStyle.Render(fmt.Sprintf("%-16s", h[0])),
			infoStyle.Render(h[1]))
	}
}

func (r *REPL) printConversations() {
	cur := r.mgr.Current()
	for i, conv := range r.mgr.Conversations() {
		marker := "  "
		if cur != nil && conv.ID == cur.ID {
			marker = commandStyle.Render("* ")
		}
		meta := fmt.Sprintf("%d messages, %s",
			len(conv.Messages), pricing.FormatCost(conv.TotalCost))
		fmt.Printf("%s%2d. %s  %s\n", marker, i+1, conv.Title, infoStyle.Render(meta))
	}
}

func (r *REPL) selectConversation(arg string) error {
	idx, err := parseIndex(arg, len(r.mgr.Conversations()))
	if err != nil {
		return err
	}
	conv := r.mgr.Conversations()[idx]
	r.mgr.Select(conv.ID)
	fmt.Println(infoStyle.Render("Switched to " + conv.Title))
	return nil
}

// deleteConversation runs the two-phase delete with an inline confirm.
func (r *REPL) deleteConversation(arg string) error {
	convs := r.mgr.Conversations()
	idx, err := parseIndex(arg, len(convs))
	if err != nil {
		return err
	}
	conv := convs[idx]
	r.mgr.RequestDelete(conv.ID)

	answer, err := r.input.ReadLine(warnStyle.Render(fmt.Sprintf("Delete %q? [y/N] ", conv.Title)))
	if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
		r.mgr.CancelDelete()
		fmt.Println(infoStyle.Render("Kept."))
		return nil
	}
	r.mgr.ConfirmDelete()
	fmt.Println(infoStyle.Render("Deleted."))
	return nil
}

func (r *REPL) handleModel(arg string) error {
	if arg == "" {
		conv := r.mgr.Current()
		if conv == nil || conv.Model == "" {
			fmt.Println(infoStyle.Render("No model selected."))
			return nil
		}
		fmt.Println(infoStyle.Render("Model: " + catalog.DisplayName(conv.Model, r.mgr.Catalog())))
		return nil
	}
	for _, e := range r.mgr.SelectableModels() {
		if e.ID == arg {
			r.mgr.SetModel(arg)
			fmt.Println(infoStyle.Render("Model set to " + e.Label))
			return nil
		}
	}
	return fmt.Errorf("unknown model %q (see /models)", arg)
}

func (r *REPL) printModels() {
	entries := r.mgr.SelectableModels()
	if len(entries) == 0 {
		fmt.Println(warnStyle.Render("No models available. Configure an API key or start Ollama."))
		return
	}
	cat := r.mgr.Catalog()
	lastProvider := ""
	for _, e := range entries {
		p := catalog.OwningProvider(cat, e.ID)
		if string(p) != lastProvider {
			fmt.Println(commandStyle.Render(p.DisplayName()))
			lastProvider = string(p)
		}
		fmt.Printf("  %s  %s\n", e.ID, infoStyle.Render(e.Label))
	}
}

func (r *REPL) handlePrompt(arg string) error {
	if arg == "" {
		p := r.mgr.CurrentPrompt()
		fmt.Println(infoStyle.Render("System prompt: " + p.Title))
		return nil
	}
	for _, p := range r.mgr.Prompts() {
		if p.ID == arg {
			r.mgr.SetSystemPrompt(p.ID)
			fmt.Println(infoStyle.Render("System prompt set to " + p.Title))
			return nil
		}
	}
	return fmt.Errorf("unknown prompt %q (see /prompts)", arg)
}

func (r *REPL) printPrompts() {
	active := r.mgr.CurrentPrompt()
	for _, p := range r.mgr.Prompts() {
		marker := "  "
		if p.ID == active.ID {
			marker = commandStyle.Render("* ")
		}
		fmt.Printf("%s%s  %s\n", marker, p.ID, infoStyle.Render(p.Title))
	}
}

func (r *REPL) exportConversation() error {
	conv := r.mgr.Current()
	if conv == nil || conv.IsEmpty() {
		return errors.New("nothing to export")
	}
	opts := export.DefaultOptions()
	if r.exportDir != "" {
		opts.OutputDir = r.exportDir
	}
	path, err := export.ExportToFile(conv, export.NewMarkdownExporter(opts), opts)
	if err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Exported to " + path))
	return nil
}

func (r *REPL) exportTable(arg string) error {
	format := strings.ToLower(strings.TrimSpace(arg))
	if format == "" {
		format = "csv"
	}
	conv := r.mgr.Current()
	if conv == nil {
		return errors.New("nothing to export")
	}

	var last *model.Message
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == model.RoleAssistant {
			last = &conv.Messages[i]
			break
		}
	}
	if last == nil {
		return errors.New("no assistant response to export")
	}
	table := export.ExtractTable(last.Content)
	if table == nil {
		return errors.New("no table found in the last response")
	}
	path, err := export.WriteTableToFile(table, format, r.exportDir)
	if err != nil {
		return err
	}
	fmt.Println(infoStyle.Render("Exported to " + path))
	return nil
}

func (r *REPL) printStatus() {
	conv := r.mgr.Current()
	if conv == nil {
		return
	}
	fmt.Println(infoStyle.Render(fmt.Sprintf("Conversation: %s", conv.Title)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Messages:     %d", len(conv.Messages))))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Tokens:       %d in / %d out",
		conv.TotalInputTokens, conv.TotalOutputTokens)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("Cost:         %s", pricing.FormatCost(conv.TotalCost))))
	for id, mu := range conv.ModelUsage {
		fmt.Println(infoStyle.Render(fmt.Sprintf("  %s: %s tokens",
			id, pricing.FormatTokenCount(mu.TotalTokens))))
	}
}

// parseIndex converts a 1-based argument to a bounds-checked 0-based
// index.
func parseIndex(arg string, n int) (int, error) {
	if arg == "" {
		return 0, errors.New("missing conversation number (see /list)")
	}
	var idx int
	if _, err := fmt.Sscanf(arg, "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	if idx < 1 || idx > n {
		return 0, fmt.Errorf("conversation %d does not exist (1-%d)", idx, n)
	}
	return idx - 1, nil
}
