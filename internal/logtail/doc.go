// Package logtail reads the end of simdeck's log file for the diagnostics
// overlay.
//
// Read keeps a ring buffer of the last maxLines lines, so memory is bounded
// by the window and not the file size. Classify infers a severity from the
// message text, since the standard logger writes no level field: lines
// starting with "warning:" are warnings and failed engine calls are errors.
// Filter narrows a tail to problems only.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	if err != nil {
//		return err
//	}
//	problems := logtail.Filter(lines, logtail.LevelWarn)
package logtail
