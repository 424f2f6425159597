package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/wpdeploy/deploy"
	"github.com/wpdeploy/target/types"
)

var (
	title   = color.New(color.FgHiMagenta)
	label   = color.New(color.FgHiGreen)
	bar     = color.New(color.FgCyan)
	errHead = color.New(color.FgHiRed, color.Bold)
	errText = color.New(color.FgHiRed)
	success = color.New(color.FgHiGreen)
)

const barWidth = 30

// Console draws the progress of a deployment on a terminal
type Console struct {
	w    io.Writer
	host types.Host

	inBar bool
}

// NewConsole returns a Console writing to w
func NewConsole(w io.Writer, host types.Host) *Console {
	return &Console{w: w, host: host}
}

// Banner prints the summary of cfg
func Banner(w io.Writer, cfg types.Config) {
	lines := []string{
		title.Sprint("wordpress-deploy"),
		"",
		label.Sprint("Host: ") + cfg.Host.Address,
		label.Sprint("Port: ") + fmt.Sprint(cfg.Host.Port),
		label.Sprint("User: ") + cfg.Host.User,
		label.Sprint("Protocol: ") + string(cfg.Host.Protocol),
		label.Sprint("Theme: ") + cfg.Theme,
	}
	box(w, lines)
}

// Error prints a message box for a failure
func Error(w io.Writer, message, description string) {
	lines := []string{errHead.Sprint("Error: ") + errText.Sprint(message)}
	if description != "" {
		lines = append(lines, strings.Split(description, "\n")...)
	}
	box(w, lines)
}

// Report draws e
func (c *Console) Report(e deploy.Event) {
	switch e.Type {
	case deploy.EventItem:
		c.progress(e)

	case deploy.EventCompleted:
		c.endBar()
		box(c.w, []string{success.Sprint("✓ Upload complete")})

	case deploy.EventFailed:
		c.endBar()
		message, description := c.explain(e)
		Error(c.w, message, description)
	}
}

func (c *Console) progress(e deploy.Event) {
	filled := barWidth
	if e.Total > 0 {
		filled = barWidth * e.Done / e.Total
	}

	status := "Uploading file: " + filepath.Base(e.Entry.LocalPath)
	if e.Entry.Dir() {
		status = "Creating directory: " + filepath.Base(e.Entry.LocalPath)
	}
	if e.Done == e.Total {
		status = "Upload complete"
	}

	fmt.Fprintf(c.w, "\rUploading |%s| %3d%% | %d/%d files | %s\033[K",
		bar.Sprint(strings.Repeat("█", filled)+strings.Repeat("░", barWidth-filled)),
		100*e.Done/max(e.Total, 1), e.Done, e.Total, status)
	c.inBar = true
}

func (c *Console) endBar() {
	if c.inBar {
		fmt.Fprintln(c.w)
		c.inBar = false
	}
}

// explain turns a failure into the message shown to the user
func (c *Console) explain(e deploy.Event) (string, string) {
	switch e.State {
	case deploy.StateConnecting:
		var cerr *types.ConnectError
		if errors.As(e.Err, &cerr) {
			return "Could not connect to server",
				fmt.Sprintf("Host: %s\nPort: %d\nUser: %s\n%v", cerr.Host, cerr.Port, cerr.User, cerr.Err)
		}
		return "Could not create backup folder", fmt.Sprintf("Remote location: %s\n%v", e.Plan.BackupBase, e.Err)

	case deploy.StateUploading:
		return "Upload failed", fmt.Sprintf("Staging location: %s\n%v", e.Plan.StagingRoot, e.Err)

	case deploy.StateSwappingOut:
		return "Could not backup current theme", fmt.Sprintf("Remote location: %s\n%v", e.Plan.LiveRoot, e.Err)

	case deploy.StateSwappingIn:
		return "Could not create theme folder",
			fmt.Sprintf("Remote location: %s\nPrevious theme: %s\nNew theme: %s\n%v",
				e.Plan.LiveRoot, e.Plan.BackupRoot, e.Plan.StagingRoot, e.Err)
	}
	return "Deployment failed", fmt.Sprint(e.Err)
}

// box draws lines in a double bordered box
func box(w io.Writer, lines []string) {
	width := 0
	for _, l := range lines {
		width = max(width, visibleLen(l))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "╔%s╗\n", strings.Repeat("═", width+2))
	for _, l := range lines {
		fmt.Fprintf(w, "║ %s%s ║\n", l, strings.Repeat(" ", width-visibleLen(l)))
	}
	fmt.Fprintf(w, "╚%s╝\n", strings.Repeat("═", width+2))
}

// visibleLen counts runes, skipping ANSI color sequences
func visibleLen(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] == '\033' {
			j := strings.IndexByte(s[i:], 'm')
			if j < 0 {
				break
			}
			i += j + 1
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return n
}
