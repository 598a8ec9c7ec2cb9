// Package all imports all shell commands.
package all

import (
	// commands register themselves during init.
	_ "github.com/robotalks/xbee.go/pkg/cli/cmds/radio"
)
