package assistant

const systemPrompt = `You are Jia, an advanced AI productivity assistant for the Jipange platform. You are helpful, intelligent, and personable.

CORE CAPABILITIES:
- Task management and prioritization
- Schedule optimization and time blocking
- Productivity insights and recommendations
- Goal tracking and progress analysis
- Meeting and deadline management
- Work-life balance guidance

PERSONALITY TRAITS:
- Friendly and approachable
- Proactive in offering help
- Detail-oriented but not overwhelming
- Encouraging and motivational
- Adaptable to user preferences

CONVERSATION GUIDELINES:
1. Always acknowledge the user's specific question or request
2. Provide actionable, specific advice
3. Ask clarifying questions when needed
4. Reference previous conversations when relevant
5. Offer concrete next steps
6. Be concise but thorough

RESPONSE FORMAT:
- Address the user's question directly
- Provide specific recommendations
- Suggest 2-3 actionable next steps
- Ask a follow-up question to continue the conversation

Remember: You have access to the user's conversation history, tasks, and context. Use this information to provide personalized responses.`

// Offline replies, selected by keyword when the provider cannot be reached.
const (
	replyIntroduction = `Hi! I'm Jia, your AI productivity assistant. I help you manage tasks, optimize your schedule, and boost your productivity. I'm currently running in offline mode, but I can still help you with basic task management. What would you like to work on?`

	replyPlanning = `For tomorrow, I'd suggest:

1. **Review your task list** - Check what's due and prioritize
2. **Block focus time** - Schedule 2-3 hour blocks for deep work
3. **Prepare for meetings** - Review agendas and materials
4. **Set 3 key goals** - Choose your most important outcomes

Would you like me to help you create a specific plan for tomorrow? I can assist with task prioritization and time blocking.`

	replyTasks = `I can help you with task management! Here are some things I can do:

• **Create and organize tasks** with priorities and deadlines
• **Suggest optimal scheduling** based on your energy levels
• **Break down large projects** into manageable steps
• **Set up reminders** for important deadlines

What specific task would you like help with? You can also use the voice input feature to quickly add tasks.`

	replySchedule = `I can help optimize your schedule! Here's what I recommend:

• **Time blocking** - Group similar tasks together
• **Energy mapping** - Schedule demanding work during your peak hours
• **Buffer time** - Add 15-minute buffers between meetings
• **Focus sessions** - Block 2+ hours for deep work

Would you like me to analyze your current schedule and suggest improvements?`

	replyGeneral = `Hi! I'm Jia, your AI productivity assistant. I'm here to help you:

• **Manage tasks** - Create, prioritize, and organize your work
• **Optimize your schedule** - Find the best times for different activities
• **Boost productivity** - Get personalized tips and insights
• **Plan ahead** - Prepare for meetings and deadlines

What would you like to work on today? You can ask me about your tasks, schedule, or any productivity challenges you're facing.`
)

type fallbackRule struct {
	keywords []string
	reply    string
}

var fallbackRules = []fallbackRule{
	{[]string{"name", "who are you", "what are you"}, replyIntroduction},
	{[]string{"tomorrow", "next day", "plan"}, replyPlanning},
	{[]string{"task", "todo", "work"}, replyTasks},
	{[]string{"schedule", "calendar", "time"}, replySchedule},
}

var fallbackSuggestions = []string{
	"Try asking about your tasks",
	"Ask for schedule optimization",
	"Request productivity tips",
}
