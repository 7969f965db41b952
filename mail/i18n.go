package mail

// Locale selects the language of outgoing mail. Unknown locales fall back
// to English.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleZH Locale = "zh"
)

// TemplateKind identifies one of the transactional emails this service
// sends. Template text is resolved through a typed table, so a missing
// translation is a compile-time visible gap, not a runtime lookup failure.
type TemplateKind int

const (
	TemplateVerification TemplateKind = iota
	TemplatePasswordReset
	TemplateWelcome
)

type templateCopy struct {
	// Subject receives the sender name as its argument.
	Subject string
	Heading string
	Body    string
	Action  string
}

var translations = map[Locale]map[TemplateKind]templateCopy{
	LocaleEN: {
		TemplateVerification: {
			Subject: "Verify your %s email",
			Heading: "Verify your email address",
			Body:    "Click the link below to verify your email address.",
			Action:  "Verify Email",
		},
		TemplatePasswordReset: {
			Subject: "Reset your %s password",
			Heading: "Reset your password",
			Body:    "Click the link below to choose a new password. If you did not request this, you can ignore this email.",
			Action:  "Reset Password",
		},
		TemplateWelcome: {
			Subject: "Welcome to %s",
			Heading: "Welcome!",
			Body:    "Your account is ready. Click the link below to get started.",
			Action:  "Open App",
		},
	},
	LocaleZH: {
		TemplateVerification: {
			Subject: "验证您的 %s 邮箱",
			Heading: "验证您的邮箱地址",
			Body:    "请点击下面的链接验证您的邮箱地址。",
			Action:  "验证邮箱",
		},
		TemplatePasswordReset: {
			Subject: "重置您的 %s 密码",
			Heading: "重置密码",
			Body:    "请点击下面的链接设置新密码。如果这不是您本人的操作,请忽略此邮件。",
			Action:  "重置密码",
		},
		TemplateWelcome: {
			Subject: "欢迎使用 %s",
			Heading: "欢迎!",
			Body:    "您的账户已准备就绪,点击下面的链接开始使用。",
			Action:  "打开应用",
		},
	},
}

// copyFor returns the template text for the locale, falling back to English.
func copyFor(locale Locale, kind TemplateKind) templateCopy {
	if byKind, ok := translations[locale]; ok {
		if c, ok := byKind[kind]; ok {
			return c
		}
	}
	return translations[LocaleEN][kind]
}
