package moderation

// Custom emojis of the NucleoBot server, shared by the scanner and commands
const (
	EmojiAmongUs   = "<a:42811vaporwaveamongus:1475287541308723343>"
	EmojiLock      = "<a:44503lockkey:1475287251771457636>"
	EmojiNuclear   = "<a:5309nuclearlaunchbutton:1475287239046070342>"
	EmojiAlertBlue = "<a:5567alertblue1:1475286980957966559>"
	EmojiAlertRed  = "<a:75814alert:1475286853753241630>"
)
