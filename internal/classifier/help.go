package classifier

const helpText = `**Available Commands:**

📅 **Calendar Management**
- "Schedule a meeting with [name] on [date] at [time]"
- "Show my calendar for today"
- "What meetings do I have this week?"

⏰ **Reminders**
- "Remind me to [task] at [time]"
- "Set a reminder for [date]"
- "Show my reminders"

📁 **SharePoint**
- "Find documents in SharePoint about [topic]"
- "Search SharePoint for [query]"

💾 **Dataverse**
- "Get contacts from Dataverse"
- "Query accounts from Dataverse"
- "Show my leads"

❓ **Help**
- "Help" - Show this help text
- "What can you do?" - List capabilities`

// HelpText returns the canned command reference shown for the help intent.
func HelpText() string {
	return helpText
}
