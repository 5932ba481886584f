package config

import "github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"

// ApplyEngine returns cfg with the configured engine defaults applied.
// Count and callbacks are left untouched.
func ApplyEngine[K comparable](e EngineConfig, cfg virtualizer.Config[K]) virtualizer.Config[K] {
	return cfg.
		WithOverscan(e.Overscan).
		WithGap(e.Gap).
		WithPadding(e.PaddingStart, e.PaddingEnd).
		WithScrollPadding(e.ScrollPaddingStart, e.ScrollPaddingEnd).
		WithScrollMargin(e.ScrollMargin).
		WithScrollingResetDelay(e.ResetDelayMS).
		WithUseScrollEndEvent(e.UseScrollEndEvent)
}
