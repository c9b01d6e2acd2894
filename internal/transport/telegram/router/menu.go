package router

import (
	"context"
	"regexp"
	"sort"
	"time"

	kit "github.com/garpil124/menfes/internal/transport"
)

// Telegram restricts menu command names to [a-z0-9_]{1,32}.
var menuNameRe = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// publishMenu pushes the command list to the platform autocomplete menu when
// the gateway supports it. Best-effort and non-blocking.
func (r *Router) publishMenu(ctx context.Context, cmds []Command) {
	up, ok := r.gw.(kit.CommandMenuUpdater)
	if !ok {
		return
	}

	menu := make([]kit.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		if c.Description == "" || !menuNameRe.MatchString(c.Name) {
			continue
		}
		menu = append(menu, kit.BotCommand{Command: c.Name, Description: c.Description})
	}
	if len(menu) == 0 {
		return
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].Command < menu[j].Command })

	go func() {
		mctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = up.UpdateMenuCommands(mctx, menu)
	}()
}
