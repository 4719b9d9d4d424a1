package main

import (
	"github.com/gin-gonic/gin"

	"tools.zach/dev/xpcard/internal/server"
)

func runServe(a *app, args []string) error {
	fs := a.newFlagSet("serve")
	addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(a.renderer(), server.Options{
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		MaxBadges:      a.cfg.Server.MaxBadges,
		Logger:         a.log,
	})

	ctx, stop := signalContext()
	defer stop()
	a.log.Info("xpcard serving", "version", resolveVersion(), "addr", *addr, "data_dir", a.dirs.Root)
	return srv.Run(ctx, *addr)
}
