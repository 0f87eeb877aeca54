package bot

import (
	"bytes"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func TrimChannelString(chStr string) string {
	chStr = strings.TrimPrefix(chStr, "<#")
	chStr = strings.TrimSuffix(chStr, ">")
	return chStr
}

func TrimUserString(uStr string) string {
	uStr = strings.TrimPrefix(uStr, "<@")
	uStr = strings.TrimPrefix(uStr, "!")
	uStr = strings.TrimSuffix(uStr, ">")
	return uStr
}

func AddMessageFile(m *discordgo.MessageSend, filename string, data []byte) *discordgo.MessageSend {
	m.Files = append(m.Files, &discordgo.File{
		Name:   filename,
		Reader: bytes.NewBuffer(data),
	})
	return m
}

// SplitArgs splits a command line on whitespace. Double quotes group words.
func SplitArgs(s string) []string {
	var (
		args   []string
		cur    strings.Builder
		quoted bool
		inArg  bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			inArg = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args
}
