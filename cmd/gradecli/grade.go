package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/studentid"
	"github.com/programme-lv/grader/submfs"
)

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ecc71"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
)

// keys 1, 2 and 3 map to these marks
var markKeys = map[string]grading.Mark{
	"1": grading.Circle,
	"2": grading.Triangle,
	"3": grading.Cross,
}

var markSymbols = map[grading.Mark]string{
	grading.Circle:   "○",
	grading.Triangle: "△",
	grading.Cross:    "×",
}

type savedMsg struct {
	complete bool
	next     int
	found    bool
	err      error
}

type gradeModel struct {
	ctx        context.Context
	store      *grading.Store
	assignment string
	students   []submfs.Student
	ids        []string
	rubric     grading.Rubric

	index  int
	cursor int
	marks  grading.Marks
	dirty  bool

	jumping   bool
	jumpInput textinput.Model

	status string
	err    error
}

func newGradeModel(ctx context.Context, catalog *submfs.Catalog, store *grading.Store, assignment string) (gradeModel, error) {
	students, err := catalog.Students(ctx, assignment)
	if err != nil {
		return gradeModel{}, err
	}
	if len(students) == 0 {
		return gradeModel{}, fmt.Errorf("assignment %q has no submissions", assignment)
	}
	rubric, err := store.LoadRubric(ctx, assignment)
	if err != nil {
		return gradeModel{}, err
	}
	if len(rubric.Order) == 0 {
		return gradeModel{}, fmt.Errorf("assignment %q has no problems, set a rubric first", assignment)
	}

	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}

	ti := textinput.New()
	ti.Placeholder = "student id"
	ti.CharLimit = 32
	ti.Width = 32
	ti.Prompt = "jump to: "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9b59b6"))

	m := gradeModel{
		ctx:        ctx,
		store:      store,
		assignment: assignment,
		students:   students,
		ids:        ids,
		rubric:     rubric,
		jumpInput:  ti,
	}

	start, found, err := store.FindNextIncomplete(ctx, assignment, ids, -1)
	if err != nil {
		return gradeModel{}, err
	}
	if !found {
		start = 0
	}
	if err := m.open(start); err != nil {
		return gradeModel{}, err
	}
	return m, nil
}

func (m *gradeModel) open(i int) error {
	marks, err := m.store.LoadMarks(m.ctx, m.assignment, m.ids[i])
	if err != nil {
		return err
	}
	m.index = i
	m.cursor = 0
	m.marks = marks
	m.dirty = false
	return nil
}

func (m gradeModel) save() tea.Cmd {
	ctx, store, assignment, ids, index := m.ctx, m.store, m.assignment, m.ids, m.index
	marks := make(grading.Marks, len(m.marks))
	for k, v := range m.marks {
		marks[k] = v
	}
	return func() tea.Msg {
		if err := store.SaveMarks(ctx, assignment, ids[index], marks); err != nil {
			return savedMsg{err: err}
		}
		complete, err := store.IsComplete(ctx, assignment, ids[index])
		if err != nil {
			return savedMsg{err: err}
		}
		next, found, err := store.FindNextIncomplete(ctx, assignment, ids, index)
		return savedMsg{complete: complete, next: next, found: found, err: err}
	}
}

func (m gradeModel) Init() tea.Cmd {
	return nil
}

func (m gradeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.jumping {
		return m.updateJump(msg)
	}

	switch msg := msg.(type) {
	case savedMsg:
		return m.handleSaved(msg), nil
	case tea.KeyMsg:
		m.err = nil
		switch key := msg.String(); key {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rubric.Order)-1 {
				m.cursor++
			}
		case "1", "2", "3":
			m.marks[m.rubric.Order[m.cursor]] = markKeys[key]
			m.dirty = true
			if m.cursor < len(m.rubric.Order)-1 {
				m.cursor++
			}
		case "enter", "s":
			m.status = "saving..."
			return m, m.save()
		case "right", "n":
			m.move(m.index + 1)
		case "left", "p":
			m.move(m.index - 1)
		case "/":
			m.jumping = true
			m.jumpInput.SetValue("")
			m.jumpInput.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

// move opens student i unless unsaved marks would be lost.
func (m *gradeModel) move(i int) {
	if i < 0 || i >= len(m.ids) {
		return
	}
	if m.dirty {
		m.status = "unsaved marks, press s to save first"
		return
	}
	if err := m.open(i); err != nil {
		m.err = err
		return
	}
	m.status = ""
}

func (m gradeModel) handleSaved(msg savedMsg) gradeModel {
	if msg.err != nil {
		m.err = msg.err
		m.status = ""
		return m
	}
	m.dirty = false
	switch {
	case !msg.complete:
		m.status = "saved, some problems are still unmarked"
	case !msg.found:
		m.status = "saved, every submission is graded"
	default:
		if err := m.open(msg.next); err != nil {
			m.err = err
			return m
		}
		m.status = "saved"
	}
	return m
}

func (m gradeModel) updateJump(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.jumping = false
			m.jumpInput.Blur()
			return m, nil
		case tea.KeyEnter:
			m.jumping = false
			m.jumpInput.Blur()
			id := studentid.Normalize(strings.TrimSpace(m.jumpInput.Value()))
			for i, s := range m.ids {
				if s == id {
					m.move(i)
					return m, nil
				}
			}
			m.status = fmt.Sprintf("no submission from %q", id)
			return m, nil
		}
	}
	return m, cmd
}

func (m gradeModel) View() string {
	s := m.students[m.index]
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s  %d/%d", m.assignment, m.index+1, len(m.students))))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s\n\n", s.ID, s.DisplayName))

	for i, id := range m.rubric.Order {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		symbol := dimStyle.Render("·")
		if mark, ok := m.marks[id]; ok {
			symbol = markSymbols[mark]
		}
		label := m.rubric.Problems[id]
		if label == "" {
			label = id
		}
		sb.WriteString(fmt.Sprintf("%s%s %s (%s)\n", pointer, symbol, label, formatScore(m.rubric.Points[id])))
	}

	earned, total := grading.Points(m.rubric, m.marks)
	sb.WriteString(fmt.Sprintf("\n%s / %s points\n\n", formatScore(earned), formatScore(total)))

	if m.jumping {
		sb.WriteString(m.jumpInput.View())
		sb.WriteString("\n")
	}
	if m.err != nil {
		sb.WriteString(errStyle.Render(m.err.Error()))
		sb.WriteString("\n")
	} else if m.status != "" {
		sb.WriteString(okStyle.Render(m.status))
		sb.WriteString("\n")
	}

	sb.WriteString(dimStyle.Render("1 ○  2 △  3 ×  ↑/↓ problem  ←/→ student  s save  / jump  q quit"))
	sb.WriteString("\n")
	return sb.String()
}
