package tui

import (
	"context"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/solemarket/solechat/internal/api"
	"github.com/solemarket/solechat/internal/bus"
	"github.com/solemarket/solechat/internal/compose"
	"github.com/solemarket/solechat/internal/convo"
	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
	"github.com/solemarket/solechat/internal/session"
	"github.com/solemarket/solechat/internal/tui/keys"
	"github.com/solemarket/solechat/internal/tui/ui"
	"github.com/solemarket/solechat/internal/tui/views"
)

const (
	pageLogin    = "login"
	pagePartners = "partners"
	pageThread   = "thread"
)

// Deps bundles everything the TUI shell needs.
type Deps struct {
	Profile  string
	ToUser   int64 // deep link: open this user's conversation once signed in
	Store    *convo.Store
	Composer *compose.Composer
	Auth     *api.AuthService
	Creds    *session.CredStore
	Machine  *session.Machine
	Bus      *bus.Bus
	Logger   *zap.Logger
}

// App is the terminal application shell. All state lives in the core
// packages; the shell renders snapshots and forwards input.
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	root     *tview.Flex
	theme    *ui.Theme
	registry *keys.Registry
	prompt   *ui.Prompt
	flash    *ui.FlashModel

	store    *convo.Store
	composer *compose.Composer
	auth     *api.AuthService
	creds    *session.CredStore
	machine  *session.Machine
	bus      *bus.Bus
	logger   *zap.Logger

	profile string
	toUser  int64
	onQuit  func()

	loginView   *views.LoginView
	partnerList *views.PartnerList
	threadView  *views.ThreadView
	composerBar *views.ComposerBar
	statusBar   *views.StatusBar

	promptOpen bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(d Deps) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	flash := ui.NewFlashModel()

	a := &App{
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		theme:    theme,
		registry: keys.NewRegistry(),
		prompt:   ui.NewPrompt(theme),
		flash:    flash,

		store:    d.Store,
		composer: d.Composer,
		auth:     d.Auth,
		creds:    d.Creds,
		machine:  d.Machine,
		bus:      d.Bus,
		logger:   d.Logger,

		profile: d.Profile,
		toUser:  d.ToUser,

		loginView:   views.NewLoginView(theme),
		partnerList: views.NewPartnerList(theme),
		threadView:  views.NewThreadView(theme),
		composerBar: views.NewComposerBar(theme),
		statusBar:   views.NewStatusBar(theme, d.Profile, flash),

		ctx:    ctx,
		cancel: cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

// SetOnQuit installs the hook run when the user quits, wired to the
// application shutdowner.
func (a *App) SetOnQuit(fn func()) {
	a.onQuit = fn
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: func() { a.quit() },
	})
	a.registry.AddPage(pagePartners, &keys.Action{
		Rune: 's', Key: tcell.KeyRune,
		Description: "s:search", Visible: true,
		Handler: func() { a.openPrompt("search ") },
	})
	a.registry.AddPage(pagePartners, &keys.Action{
		Key:         tcell.KeyCtrlR,
		Description: "^r:refresh", Visible: true,
		Handler: func() {
			go func() { _ = a.store.LoadPartners(a.ctx) }()
		},
	})
	a.registry.AddPage(pageThread, &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:write", Visible: true,
		Handler: func() { a.app.SetFocus(a.composerBar) },
	})
}

func (a *App) setupCallbacks() {
	a.loginView.SetOnLogin(func(c views.Credentials) {
		a.loginView.ShowStatus("Signing in...")
		go a.signIn(func(ctx context.Context) (*api.AuthResult, error) {
			return a.auth.Login(ctx, c.Username, c.Password)
		})
	})
	a.loginView.SetOnRegister(func(c views.Credentials) {
		a.loginView.ShowStatus("Creating account...")
		go a.signIn(func(ctx context.Context) (*api.AuthResult, error) {
			return a.auth.Register(ctx, api.RegisterRequest{
				Username: c.Username,
				Email:    c.Email,
				Password: c.Password,
				FullName: c.FullName,
			})
		})
	})
	a.loginView.SetOnGuest(func() {
		a.loginView.ShowStatus("Starting guest session...")
		go a.signIn(func(ctx context.Context) (*api.AuthResult, error) {
			return a.auth.Guest(ctx)
		})
	})

	a.partnerList.SetSelectedFunc(func(row, col int) {
		if p := a.partnerList.Selected(); p != nil {
			a.store.SelectPartner(a.ctx, *p)
		}
	})

	a.composerBar.SetOnSend(func(text string) {
		go func() {
			_, err := a.composer.Send(a.ctx, text)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.flash.Err(rest.UserMessage(err, "message could not be sent"))
					a.statusBar.Redraw()
					return
				}
				a.composerBar.SetText("")
				a.redrawThread()
			})
		}()
	})

	a.prompt.SetOnSubmit(func(text string) {
		a.closePrompt()
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(func() { a.closePrompt() })
}

func (a *App) setupLayout() {
	threadFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.threadView, 0, 1, true).
		AddItem(a.composerBar, 1, 0, false)

	a.pages.AddPage(pageLogin, a.loginView, true, true)
	a.pages.AddPage(pagePartners, a.partnerList, true, false)
	a.pages.AddPage(pageThread, threadFlex, true, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		page, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch {
			case a.promptOpen:
				a.closePrompt()
				return nil
			case page == pageThread:
				a.store.ClearSelection()
				a.showPage(pagePartners)
				return nil
			}
		}

		// Text widgets own their keys. Form focus lands on the item, not
		// the form, so buttons need listing too.
		switch a.app.GetFocus().(type) {
		case *tview.InputField, *tview.Form, *tview.Button:
			return event
		}

		if event.Key() == tcell.KeyRune && event.Rune() == ':' {
			a.openPrompt("")
			return nil
		}

		if a.registry.HandleEvent(page, event) {
			return nil
		}
		return event
	})
}

// Run starts the event loop and blocks until the application exits.
func (a *App) Run() error {
	go a.eventLoop()

	if a.machine.Current() == session.Ready {
		a.enterReady()
	} else {
		a.showPage(pageLogin)
	}

	return a.app.Run()
}

// Stop tears the shell down. Safe to call more than once.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func (a *App) quit() {
	if a.onQuit != nil {
		a.onQuit()
		return
	}
	a.Stop()
}

// eventLoop fans bus events into widget redraws. A slow ticker keeps the
// clock-ish parts of the status bar (flash expiry, session countdown) fresh
// between events.
func (a *App) eventLoop() {
	events, unsubscribe := a.bus.Subscribe("", 128)
	defer unsubscribe()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-events:
			a.handleEvent(evt)
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() { a.statusBar.Redraw() })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Topic {
	case bus.TopicPartnersUpdated:
		a.app.QueueUpdateDraw(func() {
			a.partnerList.Update(a.store.Partners())
		})

	case bus.TopicThreadUpdated:
		a.app.QueueUpdateDraw(func() { a.redrawThread() })

	case bus.TopicSelectionChanged:
		a.app.QueueUpdateDraw(func() {
			if a.store.ActivePartner() != nil {
				a.redrawThread()
				a.showPage(pageThread)
			} else if page, _ := a.pages.GetFrontPage(); page == pageThread {
				a.showPage(pagePartners)
			}
		})

	case bus.TopicUnreadChanged:
		a.app.QueueUpdateDraw(func() {
			if n, ok := evt.Data.(int); ok {
				a.statusBar.SetUnread(n)
			}
		})

	case bus.TopicSessionExpired:
		a.app.QueueUpdateDraw(func() { a.handleExpired() })

	case bus.TopicFlash:
		if msg, ok := evt.Data.(string); ok {
			a.flash.Info(msg)
		}
		a.app.QueueUpdateDraw(func() { a.statusBar.Redraw() })
	}
}

// signIn runs one auth exchange and promotes the session on success.
func (a *App) signIn(exchange func(ctx context.Context) (*api.AuthResult, error)) {
	_ = a.machine.Transition(session.Authenticating)

	ctx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
	defer cancel()

	res, err := exchange(ctx)
	if err != nil {
		_ = a.machine.Transition(session.SignedOut)
		a.logger.Warn("authentication failed", zap.Error(err))
		a.app.QueueUpdateDraw(func() {
			a.loginView.ShowStatus(rest.UserMessage(err, "authentication failed"))
		})
		return
	}

	user := res.User()
	if err := a.creds.Save(res.Token, user); err != nil {
		_ = a.machine.Transition(session.SignedOut)
		a.logger.Error("saving credentials failed", zap.Error(err))
		a.app.QueueUpdateDraw(func() {
			a.loginView.ShowStatus("could not save credentials: " + err.Error())
		})
		return
	}

	a.store.SetSelf(user)
	_ = a.machine.Transition(session.Ready)
	a.logger.Info("signed in", zap.String("username", user.Username), zap.Int64("user_id", user.ID))

	a.app.QueueUpdateDraw(func() {
		a.loginView.ShowStatus("")
		a.enterReady()
	})
}

// enterReady switches to the signed-in experience: pollers on, partner list
// visible, deep link resolved once.
func (a *App) enterReady() {
	self := a.store.Self()
	a.statusBar.SetUser(self.Username)
	if token, err := a.creds.Token(); err == nil {
		if exp, ok := session.TokenExpiry(token); ok {
			a.statusBar.SetExpiry(exp)
		}
	}

	a.store.Start(a.ctx)
	a.showPage(pagePartners)

	if id := a.toUser; id > 0 {
		a.toUser = 0
		go func() {
			if _, err := a.store.ResolvePartnerByID(a.ctx, id); err != nil {
				a.flash.Err(rest.UserMessage(err, "could not open conversation"))
				a.app.QueueUpdateDraw(func() { a.statusBar.Redraw() })
			}
		}()
	}
}

// handleExpired reacts to a 401 anywhere in the transport: credentials are
// already cleared, so stop polling and fall back to the login form.
func (a *App) handleExpired() {
	a.store.Stop()
	a.store.ClearSelection()
	a.statusBar.SetUser("")
	a.statusBar.SetExpiry(time.Time{})
	a.flash.Warn("session expired, please sign in again")
	a.loginView.ShowStatus("Session expired, please sign in again.")
	a.showPage(pageLogin)
}

func (a *App) logout() {
	a.store.Stop()
	a.store.ClearSelection()
	if err := a.creds.Clear(); err != nil {
		a.logger.Warn("clearing credentials failed", zap.Error(err))
	}
	_ = a.machine.Transition(session.SignedOut)
	a.statusBar.SetUser("")
	a.statusBar.SetExpiry(time.Time{})
	a.loginView.ShowStatus("")
	a.showPage(pageLogin)
	a.logger.Info("signed out")
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "", "noop":

	case "quit", "q":
		a.quit()

	case "logout":
		a.logout()

	case "search":
		if len(cmd.Args) == 0 {
			a.flashErr("usage: search <username>")
			return
		}
		username := strings.Join(cmd.Args, " ")
		go func() {
			if _, err := a.store.SearchPartnerByUsername(a.ctx, username); err != nil {
				a.flash.Err(rest.UserMessage(err, "user not found"))
				a.app.QueueUpdateDraw(func() { a.statusBar.Redraw() })
			}
		}()

	case "attach":
		if len(cmd.Args) != 2 {
			a.flashErr("usage: attach <image|video|audio> <path>")
			return
		}
		kind := model.MessageType(strings.ToUpper(cmd.Args[0]))
		if err := a.composer.Attach(kind, cmd.Args[1]); err != nil {
			a.flashErr(rest.UserMessage(err, "could not attach file"))
			return
		}
		a.composerBar.SetAttachment(a.composer.Attachment())
		a.flash.Info("attached " + cmd.Args[1])
		a.statusBar.Redraw()

	case "clear":
		a.composer.ClearAttachment()
		a.composerBar.SetAttachment(nil)
		a.flash.Info("attachment removed")
		a.statusBar.Redraw()

	default:
		a.flashErr("unknown command: " + cmd.Name)
	}
}

func (a *App) flashErr(msg string) {
	a.flash.Err(msg)
	a.statusBar.Redraw()
}

func (a *App) redrawThread() {
	partner := a.store.ActivePartner()
	a.threadView.SetPartner(partner)
	a.threadView.Update(a.store.Self(), a.store.Thread())
	a.composerBar.SetAttachment(a.composer.Attachment())
}

func (a *App) showPage(page string) {
	a.pages.SwitchToPage(page)
	a.statusBar.SetHints(a.registry.Hints(page))
	switch page {
	case pageLogin:
		a.app.SetFocus(a.loginView)
	case pagePartners:
		a.app.SetFocus(a.partnerList)
	case pageThread:
		a.app.SetFocus(a.composerBar)
	}
}

func (a *App) openPrompt(prefill string) {
	a.promptOpen = true
	a.prompt.SetText(prefill)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.promptOpen = false
	a.prompt.SetText("")
	a.root.ResizeItem(a.prompt, 0, 0)
	page, _ := a.pages.GetFrontPage()
	a.showPage(page)
}
