package persona

import "fmt"

// BuildInstruction renders a profile into the system instruction for that
// character's chat session. The instruction encodes identity, mood, behavior,
// objective, and strengths, and constrains reply length so turns stay short.
func BuildInstruction(p Profile) string {
	return fmt.Sprintf(`You are %s (%s), a %s.

Your current mood is %s and your behavior should be %s.
Your primary objective in this negotiation is: %s.
To achieve this, you must emphasize your key strengths: %s.

You are negotiating against another party. Use your defined personality and
tactics to cleverly steer the conversation towards your objective. Maintain a
professional and diplomatic tone appropriate for your role, but be firm.

Crucially, you must keep your responses concise and impactful, limited to 2-3 lines.`,
		p.Name, p.Background, p.Profession,
		p.Mood, p.Behavior,
		p.Objective,
		p.Strengths)
}

// OpeningPrompt builds the message that kicks off the negotiation: it asks
// the first character to make an opening statement to the second about the
// topic, anchored on the first character's objective.
func OpeningPrompt(first Profile, opponentName, topic string) string {
	return fmt.Sprintf(`As %s, make your opening statement to %s regarding the negotiation on '%s'.
Clearly state your initial position based on your objective: '%s'.`,
		first.Name, opponentName, topic, first.Objective)
}
