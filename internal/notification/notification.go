package notification

import (
	"fmt"
	"io"
	"os"

	"github.com/gen2brain/beeep"
)

// alert is swapped out in tests.
var alert = beeep.Alert

// Fallback receives the console message when no desktop notifier is available.
var Fallback io.Writer = os.Stdout

// Send shows a desktop notification with a beep. On headless machines it
// prints the message instead and returns the notifier error.
func Send(title, message string) error {
	if err := alert(title, message, ""); err != nil {
		fmt.Fprintf(Fallback, "\n🔔 %s: %s\n", title, message)
		return err
	}
	return nil
}

// RunFinished reports the outcome of a release run.
func RunFinished(appName, version string, runErr error) error {
	if runErr != nil {
		return Send("apkdrop release failed", fmt.Sprintf("%s %s: %v", appName, version, runErr))
	}
	return Send("apkdrop release sent", fmt.Sprintf("%s %s was shared and announced.", appName, version))
}
