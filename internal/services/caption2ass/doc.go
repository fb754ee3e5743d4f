// Package caption2ass extracts ARIB captions from recordings as SRT and ASS
// subtitles using Caption2AssC.
//
// Caption2AssC is a Windows program that expects a Japanese code page. When a
// locale emulator is configured the extractor is launched through it.
package caption2ass
