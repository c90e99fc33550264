package infra

import (
	"fmt"
	"runtime"
)

// DefaultUserAgent is sent on outbound REST and feed requests. Several
// of the upstream sources reject the Go default agent, so requests
// present a browser-like one based on the current OS.
var DefaultUserAgent = platformUserAgent()

func platformUserAgent() string {
	const chromeVer = "120.0.0.0"

	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	case "darwin":
		return fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", chromeVer)
	case "linux":
		arch := "x86_64"
		if runtime.GOARCH == "arm64" {
			arch = "aarch64"
		}
		return fmt.Sprintf("Mozilla/5.0 (X11; Linux %s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", arch, chromeVer)
	default:
		return "Mozilla/5.0 (compatible; cc-stream/1.0)"
	}
}
