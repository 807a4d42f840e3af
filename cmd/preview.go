package cmd

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"golang.org/x/term"
)

var (
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

	runImgcat = func(ctx context.Context, args ...string) error {
		c := exec.CommandContext(ctx, "imgcat", args...)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	}
)

// showImage previews a downloaded file, or the remote URL when nothing was
// downloaded, with imgcat.
func showImage(ctx context.Context, file, imageURL string) error {
	if !stdoutIsTerminal() {
		return errors.New("stdout is not a terminal")
	}
	if file != "" {
		return runImgcat(ctx, file)
	}
	return runImgcat(ctx, "--url", imageURL)
}
