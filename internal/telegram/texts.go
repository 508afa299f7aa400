package telegram

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Inline keyboard labels of the join prompt.
const (
	joinButton  = "Join Now ✅"
	retryButton = "Join & Get File ♻️"
)

// Texts holds the replies of the uploader and converter bots. Domain is the
// shortening-service host; Support the contact shown in /help.
type Texts struct {
	Domain  string
	Support string
}

func (t Texts) apiPage() string {
	return "https://" + t.Domain + "/member/tools/api"
}

// Uploader replies.

func (t Texts) UploaderReady() string { return "📁 Send A Media To Upload !" }

func (t Texts) UploaderWelcome(name string) string {
	return fmt.Sprintf("👋 Welcome %s to %s Uploader Bot!\n\n"+
		"1️⃣ Create an Account on %s\n"+
		"2️⃣ Go To 👉 %s\n"+
		"3️⃣ Copy your API Key\n"+
		"4️⃣ Send /set_api <API_KEY>\n"+
		"5️⃣ Send any media to upload !",
		greetingName(name), t.Domain, t.Domain, t.apiPage())
}

func (t Texts) UploaderSetAPIUsage() string {
	return "❌ Usage: /set_api <API_KEY>\n\nGet your API key from: " + t.apiPage()
}

func (t Texts) UploaderKeySaved() string {
	return "✅ API Key saved successfully!\n\n📁 Now send any media to upload!"
}

func (t Texts) UploaderNeedKey() string {
	return "⚠️ Please set your API key first!\n\n" +
		"👉 Get it from: " + t.apiPage() + "\n" +
		"👉 Then send: /set_api <API_KEY>"
}

func (t Texts) UploaderShortenFailed() string {
	return "❌ URL shortening failed!\nPlease check your API key."
}

func (t Texts) UploaderDone(short string) string {
	return "📤 Uploaded Successfully!\n\n🔗 Share Link:\n" + short
}

func (t Texts) UploaderFailed() string { return "❌ Upload failed! Please try again later." }

// Converter replies.

func (t Texts) ConverterReady() string { return "📁 Send A Link To Convert !" }

func (t Texts) ConverterWelcome(name string) string {
	return fmt.Sprintf("👋 Welcome %s to %s Bot!\n\n"+
		"I am Link Converter Bot.\n\n"+
		"1️⃣ Create an Account on %s\n"+
		"2️⃣ Go To 👉 %s\n"+
		"3️⃣ Copy your API Key\n"+
		"4️⃣ Send /set_api <API_KEY>\n"+
		"5️⃣ Send me any %s link\n\n"+
		"/set_api - Save your API Key\n"+
		"/help - Support - %s",
		greetingName(name), t.Domain, t.Domain, t.apiPage(), t.Domain, t.Support)
}

func (t Texts) Help() string { return "Hii For Any Query Contact Support - " + t.Support }

func (t Texts) ConverterSetAPIUsage() string { return "❌ Correct usage: /set_api <API_KEY>" }

func (t Texts) ConverterKeySaved() string { return "✅ API Key Saved Successfully!" }

func (t Texts) ConverterNeedKey() string {
	return "❌ Please set your API key first:\n/set_api <API_KEY>"
}

func (t Texts) ConverterNoURLs() string {
	return "❌ Please send a valid " + t.Domain + " link."
}

func (t Texts) ConverterInvalid(url string) string {
	return fmt.Sprintf("❌ Only %s links are supported! (Invalid: %s)", t.Domain, url)
}

func (t Texts) ConverterUnknown(url string) string {
	return fmt.Sprintf("❌ This link does not exist in database. (%s)", url)
}

func (t Texts) ConverterShortenFailed(url string) string {
	return fmt.Sprintf("❌ Failed to convert link using your API key. (%s)", url)
}

func (t Texts) ConverterFailed() string { return "❌ Conversion failed! Please try again later." }

// ConverterDone renders one "✅Video Link" block per converted link.
func (t Texts) ConverterDone(links []string) string {
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = "✅Video Link\n" + l
	}
	return strings.Join(parts, "\n")
}

// File-server replies.
const (
	textInvalidAccess   = "❌ Invalid access.\nUse a valid file link."
	textJoinPrompt      = "⚠️ You have not joined the main channel yet.\nTo access this file, please join the main channel first 👇"
	textFileNotFound    = "❌ File not found or link expired."
	textAccessDenied    = "❌ File not found or access denied."
	textFileUnavailable = "❌ Something went wrong. Please try again later."
)

// greetingName title-cases the user's first name; "User" when blank.
// Casers keep state, so each call gets its own.
func greetingName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "User"
	}
	return cases.Title(language.Und).String(name)
}
