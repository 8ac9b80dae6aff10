package render

import (
	"strings"
	"time"
)

var unsafeFilenameChars = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// ReportFilename is CR_<organization with spaces as underscores>_<YYYYMMDD>.<ext>.
func ReportFilename(organization string, date time.Time, ext string) string {
	return "CR_" + unsafeFilenameChars.Replace(organization) + "_" + date.Format("20060102") + "." + strings.TrimPrefix(ext, ".")
}

// TranscriptFilename is Transcription_<YYYYMMDD>.txt.
func TranscriptFilename(date time.Time) string {
	return "Transcription_" + date.Format("20060102") + ".txt"
}
