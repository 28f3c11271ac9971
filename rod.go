package slidecap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/alnah/go-slidecap/internal/process"
)

// Compile-time interface checks.
var (
	_ BrowserLauncher = (*rodLauncher)(nil)
	_ Browser         = (*rodBrowser)(nil)
	_ Page            = (*rodPage)(nil)
)

// Chrome flags shared by both strategies. A fixed sRGB profile keeps slide
// colors stable across hosts.
var commonFlags = map[flags.Flag]string{
	"hide-scrollbars":     "",
	"force-color-profile": "srgb",
	"mute-audio":          "",
}

// serverlessFlags trade features for a small memory footprint.
var serverlessFlags = []flags.Flag{
	"disable-gpu",
	"disable-dev-shm-usage",
	"single-process",
	"no-zygote",
	"disable-extensions",
}

// configureLocal prepares a launcher for a workstation or a regular server.
func configureLocal(l *launcher.Launcher, opts LauncherOptions) *launcher.Launcher {
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	l = l.Headless(true)
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	for name, value := range commonFlags {
		l = setFlag(l, name, value)
	}
	return l
}

// configureServerless prepares a launcher for constrained function runtimes.
func configureServerless(l *launcher.Launcher, opts LauncherOptions) *launcher.Launcher {
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	l = l.Headless(true).NoSandbox(true)
	for name, value := range commonFlags {
		l = setFlag(l, name, value)
	}
	for _, name := range serverlessFlags {
		l = l.Set(name)
	}
	return l
}

func setFlag(l *launcher.Launcher, name flags.Flag, value string) *launcher.Launcher {
	if value == "" {
		return l.Set(name)
	}
	return l.Set(name, value)
}

// rodLauncher launches a dedicated Chrome process per capture.
// Rod downloads Chromium on first run if no binary is found.
type rodLauncher struct {
	env       Environment
	opts      LauncherOptions
	configure func(*launcher.Launcher, LauncherOptions) *launcher.Launcher
}

// Environment returns the environment this strategy targets.
func (r *rodLauncher) Environment() Environment {
	return r.env
}

// Launch starts Chrome and connects to it over CDP.
func (r *rodLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := r.opts.Logger
	l := r.configure(launcher.New(), r.opts)

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		pid := l.PID()
		l.Kill()
		process.KillProcessGroup(pid)
		l.Cleanup()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	log.Debug("browser: launched", "env", r.env, "pid", l.PID())
	return &rodBrowser{browser: b, launcher: l, pid: l.PID(), log: log}, nil
}

// rodBrowser owns one Chrome process.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pid      int
	log      *slog.Logger

	once sync.Once
	err  error
}

// PID returns the browser process id.
func (b *rodBrowser) PID() int {
	return b.pid
}

// Close closes the CDP connection and terminates the process tree.
// Safe to call multiple times; only the first call does work.
func (b *rodBrowser) Close() error {
	b.once.Do(func() {
		b.err = b.browser.Close()
		b.launcher.Kill()
		process.KillProcessGroup(b.pid)
		b.launcher.Cleanup()
		b.log.Debug("browser: closed", "pid", b.pid)
	})
	return b.err
}

// OpenPage creates a page, applies viewport metrics, navigates and waits for
// the render to settle: network idle, load event, settle delay, then an
// optional forced reflow that also awaits web fonts.
func (b *rodBrowser) OpenPage(ctx context.Context, spec PageSpec) (Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if spec.Stealth {
		page, err = stealth.Page(b.browser)
	} else {
		page, err = b.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	page = page.Context(ctx)

	metrics := proto.EmulationSetDeviceMetricsOverride{
		Width:             spec.ViewportWidth,
		Height:            spec.ViewportHeight,
		DeviceScaleFactor: spec.DevicePixelRatio,
		Mobile:            false,
	}
	if err := metrics.Call(page); err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}

	nav := page.Timeout(spec.NavigationTimeout)
	defer nav.CancelTimeout()

	waitIdle := nav.WaitNavigation(proto.PageLifecycleEventNameNetworkIdle)
	if err := nav.Navigate(spec.URL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	waitIdle()

	if err := nav.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := sleepContext(ctx, spec.SettleDelay); err != nil {
		return nil, err
	}

	if spec.ForceReflow {
		if _, err := nav.Eval(reflowJS); err != nil {
			return nil, fmt.Errorf("%w: forcing reflow: %v", ErrPageLoad, err)
		}
	}

	return &rodPage{page: page}, nil
}

// reflowJS forces a synchronous layout and waits for web fonts.
const reflowJS = `async () => {
	if (document.fonts && document.fonts.ready) {
		await document.fonts.ready;
	}
	return document.body ? document.body.offsetHeight : 0;
}`

// boxJS reads the element's live bounding box in document coordinates.
const boxJS = `function () {
	const r = this.getBoundingClientRect();
	return {
		x: r.left + window.scrollX,
		y: r.top + window.scrollY,
		width: r.width,
		height: r.height,
	};
}`

// rodPage wraps a navigated rod page.
type rodPage struct {
	page *rod.Page
}

// ContainerBox locates selector without waiting and reads its bounding box.
func (p *rodPage) ContainerBox(ctx context.Context, selector string) (Box, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return Box{}, fmt.Errorf("%w: querying %q: %v", ErrPageLoad, selector, err)
	}
	if !has {
		return Box{}, fmt.Errorf("%w: %s", ErrContainerNotFound, selector)
	}

	res, err := el.Eval(boxJS)
	if err != nil {
		return Box{}, fmt.Errorf("%w: reading box of %q: %v", ErrPageLoad, selector, err)
	}

	box := Box{
		X:      res.Value.Get("x").Num(),
		Y:      res.Value.Get("y").Num(),
		Width:  res.Value.Get("width").Num(),
		Height: res.Value.Get("height").Num(),
	}
	if box.Width <= 0 || box.Height <= 0 {
		return Box{}, fmt.Errorf("%w: %s has zero size", ErrContainerNotFound, selector)
	}
	return box, nil
}

// CaptureClip takes a lossless PNG screenshot bound to box.
func (p *rodPage) CaptureClip(ctx context.Context, box Box) ([]byte, error) {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return data, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
