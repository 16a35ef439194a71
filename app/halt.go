package app

import (
	"fmt"
	"log/slog"

	"rtk/hal"
	"rtk/kernel"
)

func installHaltHandler(h hal.HAL, log *slog.Logger) {
	kernel.SetHaltHandler(func(info kernel.HaltInfo) {
		if l := h.Logger(); l != nil {
			task := "-"
			if info.Task != kernel.NoTask {
				task = fmt.Sprint(info.Task)
			}
			l.WriteLineString(fmt.Sprintf("kernel halt: tick=%d task=%s reason=%s", info.Tick, task, info.Reason))
		}
		log.Error("kernel halt", "tick", info.Tick, "task", info.Task, "reason", info.Reason)
	})
}
