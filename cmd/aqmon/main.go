package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/taoyao-code/aqmon/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/aqmon/internal/config"
	"github.com/taoyao-code/aqmon/internal/logging"
	"github.com/taoyao-code/aqmon/internal/serialport"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志；控制通道占用 stdout 时日志改写 stderr
	logger, err := logging.InitLogger(cfg.Logging, serialport.IsStdio(cfg.Control.Serial))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	// 3) 打开串口
	ports, err := bootstrap.OpenPorts(cfg)
	if err != nil {
		log.Fatal("open serial ports failed", zap.Error(err))
	}

	// 4) 运行直到收到信号或任一循环失败；失败时非零退出交给进程管理器重启
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Run(ctx, cfg, ports, log); err != nil {
		log.Error("aqmon stopped", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}
