package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/solemarket/solechat/internal/tui/ui"
)

// Credentials is the login form payload.
type Credentials struct {
	Username string
	Password string
	Email    string
	FullName string
}

// LoginView is the sign-in / sign-up form shown while signed out.
type LoginView struct {
	*tview.Flex
	form        *tview.Form
	status      *tview.TextView
	registering bool
	onLogin     func(c Credentials)
	onRegister  func(c Credentials)
	onGuest     func()
}

// NewLoginView creates the auth form.
func NewLoginView(theme *ui.Theme) *LoginView {
	lv := &LoginView{
		form:   tview.NewForm(),
		status: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
	}

	lv.form.SetBorder(true).SetTitle(" solechat — sign in ")
	lv.form.SetBorderColor(theme.BorderColor)
	lv.form.SetTitleColor(theme.TitleColor)
	lv.form.SetBackgroundColor(theme.BgColor)
	lv.form.SetFieldBackgroundColor(theme.BgColor)
	lv.form.SetButtonBackgroundColor(theme.BorderColor)
	lv.status.SetBackgroundColor(theme.BgColor)

	lv.buildForm()

	// Center the form.
	inner := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(lv.form, 0, 3, true).
		AddItem(lv.status, 1, 0, false).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(inner, 0, 2, true).
		AddItem(nil, 0, 1, false)

	return lv
}

func (lv *LoginView) buildForm() {
	lv.form.Clear(true)
	lv.form.AddInputField("Username", "", 0, nil, nil)
	if lv.registering {
		lv.form.AddInputField("Email", "", 0, nil, nil)
		lv.form.AddInputField("Full name", "", 0, nil, nil)
	}
	lv.form.AddPasswordField("Password", "", 0, '*', nil)

	if lv.registering {
		lv.form.SetTitle(" solechat — create account ")
		lv.form.AddButton("Create account", func() {
			if lv.onRegister != nil {
				lv.onRegister(lv.credentials())
			}
		})
		lv.form.AddButton("Back to sign in", func() {
			lv.registering = false
			lv.buildForm()
		})
	} else {
		lv.form.SetTitle(" solechat — sign in ")
		lv.form.AddButton("Sign in", func() {
			if lv.onLogin != nil {
				lv.onLogin(lv.credentials())
			}
		})
		lv.form.AddButton("Register", func() {
			lv.registering = true
			lv.buildForm()
		})
		lv.form.AddButton("Browse as guest", func() {
			if lv.onGuest != nil {
				lv.onGuest()
			}
		})
	}
}

func (lv *LoginView) credentials() Credentials {
	c := Credentials{
		Username: lv.fieldText("Username"),
		Password: lv.fieldText("Password"),
	}
	if lv.registering {
		c.Email = lv.fieldText("Email")
		c.FullName = lv.fieldText("Full name")
	}
	return c
}

func (lv *LoginView) fieldText(label string) string {
	item := lv.form.GetFormItemByLabel(label)
	if item == nil {
		return ""
	}
	field, ok := item.(*tview.InputField)
	if !ok {
		return ""
	}
	return field.GetText()
}

// SetOnLogin sets the sign-in callback.
func (lv *LoginView) SetOnLogin(fn func(c Credentials)) { lv.onLogin = fn }

// SetOnRegister sets the account-creation callback.
func (lv *LoginView) SetOnRegister(fn func(c Credentials)) { lv.onRegister = fn }

// SetOnGuest sets the guest-session callback.
func (lv *LoginView) SetOnGuest(fn func()) { lv.onGuest = fn }

// ShowStatus displays a line under the form.
func (lv *LoginView) ShowStatus(msg string) {
	lv.status.Clear()
	_, _ = fmt.Fprint(lv.status, msg)
}
