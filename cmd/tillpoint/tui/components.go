package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/tillpoint/pkg/sale"
	"github.com/marshallshelly/tillpoint/pkg/store"
)

// ConfirmationDialog represents a yes/no confirmation dialog. It only tracks
// which button is selected; the owning model decides what enter does, so the
// decision always acts on the live model state.
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

// NewConfirmationDialog creates a new confirmation dialog
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{
		Title:       title,
		Message:     message,
		YesSelected: false,
	}
}

// Update handles button navigation
func (d *ConfirmationDialog) Update(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			d.YesSelected = true
		case "right", "l":
			d.YesSelected = false
		}
	}
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yesButton := inactiveButtonStyle.Render("Yes")
	noButton := inactiveButtonStyle.Render("No")

	if d.YesSelected {
		yesButton = activeButtonStyle.Render("Yes")
	} else {
		noButton = activeButtonStyle.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yesButton, "  ", noButton))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(FormatKey("←/→", "navigate") + " • " + FormatKey("enter", "confirm") + " • " + FormatKey("esc/q", "cancel")))

	return boxStyle.Render(b.String())
}

// UserItem represents a user in the user-select list
type UserItem struct {
	User store.User
}

func (i UserItem) FilterValue() string { return i.User.Name }
func (i UserItem) Title() string {
	return fmt.Sprintf("%d · %s", i.User.ID, i.User.Name)
}
func (i UserItem) Description() string {
	return mutedStyle.Render(i.User.Email)
}

// ProductItem represents a product in the catalog list
type ProductItem struct {
	Product store.Product
}

func (i ProductItem) FilterValue() string { return i.Product.Name }
func (i ProductItem) Title() string {
	return fmt.Sprintf("%d · %s — $%.2f", i.Product.ID, i.Product.Name, i.Product.Price)
}
func (i ProductItem) Description() string {
	if i.Product.Stock == 0 {
		return dangerStyle.Render("out of stock")
	}
	if i.Product.Stock < 10 {
		return warningStyle.Render(fmt.Sprintf("%d in stock", i.Product.Stock))
	}
	return mutedStyle.Render(fmt.Sprintf("%d in stock", i.Product.Stock))
}

// ItemDelegate is a shared two-line delegate for the user and product lists
type ItemDelegate struct{}

func (d ItemDelegate) Height() int                             { return 2 }
func (d ItemDelegate) Spacing() int                            { return 1 }
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	type titled interface {
		Title() string
		Description() string
	}
	i, ok := item.(titled)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

// CartView renders the current cart lines and running total
type CartView struct {
	Lines    []sale.CartLine
	Products map[int]store.Product
}

// Total computes the running total at current catalog prices.
func (c CartView) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += c.Products[line.ProductID].Price * float64(line.Quantity)
	}
	return total
}

// View renders the cart view
func (c CartView) View() string {
	if len(c.Lines) == 0 {
		return mutedStyle.Render("Cart is empty")
	}

	var b strings.Builder
	for _, line := range c.Lines {
		p := c.Products[line.ProductID]
		b.WriteString(fmt.Sprintf("%d × %s", line.Quantity, p.Name))
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  ($%.2f each)", p.Price)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Total: $%.2f", c.Total())))

	return boxStyle.Render(b.String())
}
