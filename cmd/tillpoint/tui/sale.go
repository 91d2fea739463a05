package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/tillpoint/pkg/sale"
	"github.com/marshallshelly/tillpoint/pkg/store"
)

// SaleMode represents the current mode of the sale UI
type SaleMode int

const (
	ModeUserSelect SaleMode = iota
	ModeProducts
	ModeQuantity
	ModeConfirm
	ModeExecuting
	ModeComplete
	ModeError
)

// SaleModel is the main Bubbletea model for the interactive sale screen
type SaleModel struct {
	mode         SaleMode
	dbURL        string
	db           *store.DB
	users        list.Model
	products     list.Model
	quantity     textinput.Model
	confirmation ConfirmationDialog
	cart         CartView
	userID       int
	userName     string
	pendingID    int
	order        *store.Order
	err          error
	width        int
	height       int
}

// NewSaleModel creates a new sale UI model
func NewSaleModel(dbURL string) SaleModel {
	delegate := ItemDelegate{}

	users := list.New([]list.Item{}, delegate, 0, 0)
	users.Title = "Who is buying?"
	users.SetShowStatusBar(false)
	users.SetFilteringEnabled(true)
	users.Styles.Title = titleStyle

	products := list.New([]list.Item{}, delegate, 0, 0)
	products.Title = "Add products to the cart"
	products.SetShowStatusBar(false)
	products.SetFilteringEnabled(true)
	products.Styles.Title = titleStyle

	quantity := textinput.New()
	quantity.Placeholder = "quantity"
	quantity.CharLimit = 6
	quantity.Width = 12

	return SaleModel{
		mode:     ModeUserSelect,
		dbURL:    dbURL,
		users:    users,
		products: products,
		quantity: quantity,
		cart:     CartView{Products: map[int]store.Product{}},
	}
}

// Init initializes the model
func (m SaleModel) Init() tea.Cmd {
	return tea.Batch(
		loadCatalogCmd(m.dbURL),
		tea.EnterAltScreen,
	)
}

// Messages
type catalogLoadedMsg struct {
	db       *store.DB
	users    []store.User
	products []store.Product
}

type saleExecutedMsg struct {
	order *store.Order
	err   error
}

type errorMsg struct {
	err error
}

// Commands
func loadCatalogCmd(dbURL string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		db, err := store.ConnectWithURL(ctx, dbURL)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to connect to database: %w", err)}
		}

		users, err := db.ListUsers(ctx)
		if err != nil {
			db.Close()
			return errorMsg{err: fmt.Errorf("failed to list users: %w", err)}
		}
		if len(users) == 0 {
			db.Close()
			return errorMsg{err: fmt.Errorf("no users found: add a user first")}
		}

		products, err := db.ListProducts(ctx)
		if err != nil {
			db.Close()
			return errorMsg{err: fmt.Errorf("failed to list products: %w", err)}
		}
		if len(products) == 0 {
			db.Close()
			return errorMsg{err: fmt.Errorf("no products found: add a product first")}
		}

		return catalogLoadedMsg{db: db, users: users, products: products}
	}
}

func executeSaleCmd(db *store.DB, userID int, lines []sale.CartLine) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		order, err := sale.NewExecutor(db).ExecuteSale(ctx, userID, lines)
		return saleExecutedMsg{order: order, err: err}
	}
}

// Update handles messages
func (m SaleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.users.SetSize(msg.Width-4, msg.Height-8)
		m.products.SetSize(msg.Width-4, msg.Height-14)
		return m, nil

	case catalogLoadedMsg:
		m.db = msg.db

		userItems := make([]list.Item, len(msg.users))
		for i, u := range msg.users {
			userItems[i] = UserItem{User: u}
		}
		m.users.SetItems(userItems)

		productItems := make([]list.Item, len(msg.products))
		for i, p := range msg.products {
			productItems[i] = ProductItem{Product: p}
			m.cart.Products[p.ID] = p
		}
		m.products.SetItems(productItems)

		return m, nil

	case saleExecutedMsg:
		if msg.err != nil {
			m.mode = ModeError
			m.err = msg.err
			return m, nil
		}
		m.order = msg.order
		m.mode = ModeComplete
		return m, nil

	case errorMsg:
		m.mode = ModeError
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeUserSelect:
			switch msg.String() {
			case "ctrl+c", "q":
				m.closeDB()
				return m, tea.Quit

			case "enter":
				item, ok := m.users.SelectedItem().(UserItem)
				if !ok {
					return m, nil
				}
				m.userID = item.User.ID
				m.userName = item.User.Name
				m.mode = ModeProducts
				return m, nil
			}

		case ModeProducts:
			switch msg.String() {
			case "ctrl+c", "q":
				m.closeDB()
				return m, tea.Quit

			case "enter", " ":
				item, ok := m.products.SelectedItem().(ProductItem)
				if !ok {
					return m, nil
				}
				m.pendingID = item.Product.ID
				m.quantity.SetValue("")
				m.quantity.Focus()
				m.mode = ModeQuantity
				return m, textinput.Blink

			case "c":
				if len(m.cart.Lines) == 0 {
					return m, nil
				}
				m.confirmation = NewConfirmationDialog(
					"Confirm Sale",
					fmt.Sprintf("Charge %s a total of $%.2f for %d line(s)?",
						m.userName, m.cart.Total(), len(m.cart.Lines)),
				)
				m.mode = ModeConfirm
				return m, nil
			}

		case ModeQuantity:
			switch msg.String() {
			case "ctrl+c":
				m.closeDB()
				return m, tea.Quit

			case "esc":
				m.mode = ModeProducts
				return m, nil

			case "enter":
				qty, err := strconv.Atoi(m.quantity.Value())
				if err != nil || qty <= 0 {
					// Keep the input open until a positive integer arrives.
					m.quantity.SetValue("")
					return m, nil
				}
				m.cart.Lines = append(m.cart.Lines, sale.CartLine{ProductID: m.pendingID, Quantity: qty})
				m.mode = ModeProducts
				return m, nil
			}

			var cmd tea.Cmd
			m.quantity, cmd = m.quantity.Update(msg)
			return m, cmd

		case ModeConfirm:
			switch msg.String() {
			case "ctrl+c", "q", "esc":
				m.mode = ModeProducts
				return m, nil

			case "enter":
				if !m.confirmation.YesSelected {
					m.mode = ModeProducts
					return m, nil
				}
				// Leaving ModeConfirm before dispatch makes a repeated
				// enter inert, so a sale is never committed twice.
				m.mode = ModeExecuting
				return m, executeSaleCmd(m.db, m.userID, m.cart.Lines)

			default:
				m.confirmation.Update(msg)
				return m, nil
			}

		case ModeComplete, ModeError:
			switch msg.String() {
			case "ctrl+c", "q", "enter":
				m.closeDB()
				return m, tea.Quit
			}
		}
	}

	// Update the active list
	var cmd tea.Cmd
	switch m.mode {
	case ModeUserSelect:
		m.users, cmd = m.users.Update(msg)
		return m, cmd
	case ModeProducts:
		m.products, cmd = m.products.Update(msg)
		return m, cmd
	case ModeQuantity:
		m.quantity, cmd = m.quantity.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SaleModel) closeDB() {
	if m.db != nil {
		m.db.Close()
	}
}

// View renders the UI
func (m SaleModel) View() string {
	switch m.mode {
	case ModeUserSelect:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("enter", "select") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left,
			m.users.View(),
			help,
		)

	case ModeProducts:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("enter", "add to cart") + " • " +
				FormatKey("c", "checkout") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left,
			m.products.View(),
			m.cart.View(),
			help,
		)

	case ModeQuantity:
		item, _ := m.products.SelectedItem().(ProductItem)
		prompt := titleStyle.Render("Quantity for "+item.Product.Name) + "\n\n" +
			m.quantity.View() + "\n\n" +
			helpStyle.Render(FormatKey("enter", "add")+" • "+FormatKey("esc", "back"))
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(prompt),
		)

	case ModeConfirm:
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			m.confirmation.View(),
		)

	case ModeExecuting:
		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(infoStyle.Render("Recording sale…")),
		)

	case ModeComplete:
		msg := titleStyle.Render("Sale Complete!") + "\n\n" +
			successStyle.Render(fmt.Sprintf("Order #%d — total $%.2f", m.order.ID, m.order.TotalAmount)) + "\n\n" +
			helpStyle.Render(FormatKey("enter/q", "exit"))

		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(msg),
		)

	case ModeError:
		msg := titleStyle.Render("Sale Failed") + "\n\n" +
			errorStyle.Render(m.err.Error()) + "\n\n" +
			helpStyle.Render(FormatKey("enter/q", "exit"))

		return lipgloss.Place(
			m.width,
			m.height,
			lipgloss.Center,
			lipgloss.Center,
			boxStyle.Render(msg),
		)
	}

	return "Unknown mode"
}

// RunSaleUI starts the interactive sale screen
func RunSaleUI(dbURL string) error {
	p := tea.NewProgram(NewSaleModel(dbURL))
	_, err := p.Run()
	return err
}
