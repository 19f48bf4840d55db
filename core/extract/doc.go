// Package extract turns raw power samples into timeline features.
//
// Scan slides a fixed-width window over a series. Each window is offered to
// the configured templates in priority order; the first template that
// recognises an event records it and the window jumps past the consumed
// samples. Otherwise the window advances by one sample. Trailing samples that
// do not fill a whole window are never evaluated.
package extract
