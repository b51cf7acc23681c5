package view

import "datalens/internal/core"

const (
	LoadingText = "Loading transactions..."
	EmptyText   = "No transactions yet."
)

// Row is one rendered transaction.
type Row struct {
	ID          int64
	Description string
	Amount      string
}

// Model is everything a template needs to draw the view.
type Model struct {
	RootClass      string
	DarkMode       bool
	ThemeLabel     string
	Error          string
	Description    string
	Amount         string
	InputsDisabled bool
	SubmitLabel    string
	Loading        bool
	LoadingText    string
	Empty          bool
	EmptyText      string
	Rows           []Row
}

// Render is a pure function of State.
func Render(s State) Model {
	m := Model{
		Error:          s.ErrorMessage,
		Description:    s.DescriptionInput,
		Amount:         s.AmountInput,
		InputsDisabled: s.IsLoading,
		SubmitLabel:    "Add",
		Loading:        s.IsLoading,
		LoadingText:    LoadingText,
		EmptyText:      EmptyText,
		DarkMode:       s.DarkMode,
		ThemeLabel:     "🌙 Dark",
	}
	if s.DarkMode {
		m.RootClass = "dark"
		m.ThemeLabel = "☀️ Light"
	}
	if s.IsLoading {
		m.SubmitLabel = "Adding..."
		return m
	}
	if len(s.Transactions) == 0 {
		m.Empty = true
		return m
	}
	m.Rows = make([]Row, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		m.Rows = append(m.Rows, Row{
			ID:          tx.ID,
			Description: tx.Description,
			Amount:      core.FormatAmount(tx.Amount),
		})
	}
	return m
}
