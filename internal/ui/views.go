package ui

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	var b strings.Builder

	switch m.view {
	case RouteSignIn:
		m.renderSignIn(&b)
	case RouteSignUp:
		m.renderSignUp(&b)
	case RouteMovies:
		m.renderMovies(&b)
	case RouteMovieForm:
		m.renderForm(&b)
	case RouteConfirmDelete:
		m.renderConfirm(&b)
	}

	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.err
		}
		fmt.Fprintf(&b, "\n%s\n", style.Render(m.status))
	}

	return b.String()
}

func (m Model) renderSignIn(b *strings.Builder) {
	if m.snap.Loading {
		b.WriteString(styles.warn.Render("Checking session..."))
		b.WriteString("\n")
		return
	}

	b.WriteString(styles.title.Render("Sign in"))
	b.WriteString("\n")
	fmt.Fprintf(b, "%s\n%s\n", m.authIn[fieldEmail].View(), m.authIn[fieldPassword].View())
	if m.authBusy {
		b.WriteString(styles.warn.Render("Signing in..."))
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render("enter submit • ctrl+s sign up • ctrl+c quit"))
	b.WriteString("\n")
}

func (m Model) renderSignUp(b *strings.Builder) {
	if m.snap.Loading {
		b.WriteString(styles.warn.Render("Checking session..."))
		b.WriteString("\n")
		return
	}

	b.WriteString(styles.title.Render("Sign up"))
	b.WriteString("\n")
	fmt.Fprintf(b, "%s\n%s\n%s\n",
		m.authIn[fieldEmail].View(),
		m.authIn[fieldPassword].View(),
		m.authIn[fieldConfirm].View())
	if m.authBusy {
		b.WriteString(styles.warn.Render("Creating account..."))
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render("enter submit • esc back to sign in • ctrl+c quit"))
	b.WriteString("\n")
}

func (m Model) renderMovies(b *strings.Builder) {
	if m.snap.Loading {
		b.WriteString(styles.warn.Render("Checking session..."))
		b.WriteString("\n")
		return
	}

	b.WriteString(styles.title.Render("My movies"))
	b.WriteString("\n")

	switch m.pager.State() {
	case PagerLoading:
		b.WriteString(styles.warn.Render("Loading movies..."))
		b.WriteString("\n")
	case PagerError:
		b.WriteString(styles.err.Render("Could not load movies"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("r retry • ctrl+l logout • q quit"))
		b.WriteString("\n")
		return
	case PagerLoaded:
		if len(m.pager.Items()) == 0 {
			b.WriteString("Your movie list is empty\n")
			b.WriteString(styles.help.Render("a add a new movie • ctrl+l logout • q quit"))
			b.WriteString("\n")
			return
		}
		b.WriteString(m.list.View())
		b.WriteString("\n")
		fmt.Fprintf(b, "page %d/%d\n", m.pager.Page(), m.pager.TotalPages())
	}

	b.WriteString(styles.help.Render("↑/↓ move • enter edit • a add • x delete • o poster • ←/→ page • ctrl+l logout • q quit"))
	b.WriteString("\n")
}

func (m Model) renderForm(b *strings.Builder) {
	heading := "Create a new movie"
	if m.form.Mode == FormEdit {
		heading = "Edit movie"
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	if m.form.Loading() {
		b.WriteString(styles.warn.Render("Loading movie..."))
		b.WriteString("\n")
		return
	}

	b.WriteString(m.formIn[fieldTitle].View())
	b.WriteString("\n")
	if msg, ok := m.form.Errors["title"]; ok {
		b.WriteString(styles.err.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString(m.formIn[fieldYear].View())
	b.WriteString("\n")
	if msg, ok := m.form.Errors["year"]; ok {
		b.WriteString(styles.err.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString(m.formIn[fieldImage].View())
	b.WriteString("\n")
	if preview := m.form.ImagePreview(); preview != "" {
		fmt.Fprintf(b, "poster: %s\n", styles.warn.Render(preview))
	}

	b.WriteString(styles.help.Render("tab next field • enter submit • esc cancel"))
	b.WriteString("\n")
}

func (m Model) renderConfirm(b *strings.Builder) {
	b.WriteString(styles.title.Render("Delete movie"))
	b.WriteString("\n")
	fmt.Fprintf(b, "Delete %q? This cannot be undone.\n\n", m.deleteTitle)
	b.WriteString(styles.help.Render("y delete • n/esc cancel"))
	b.WriteString("\n")
}
