package lookup

import "fmt"

const webPrompt = `Please search for current, factual information about: %[1]s

Provide a comprehensive answer that includes:
1. Key facts and current information
2. Recent developments or updates if applicable
3. Relevant statistics or data
4. Important context or background

Focus on accuracy and include the most recent information available.
If you don't have current information, please indicate that.

Query: %[1]s`

const newsPrompt = `Please search for and provide current real-time news about: %[1]s

Focus on:
1. Latest breaking news and headlines
2. Recent developments and updates
3. Current events and trending stories
4. Key facts, dates, and specific details
5. Recent announcements or changes

Provide structured information with:
- Clear headlines
- Key facts and details
- Recent developments
- Current status or ongoing situation

Prioritize accuracy and recency. Only include information you are confident is current.
Query: %[1]s`

func buildPrompt(kind Kind, query string) string {
	if kind == News {
		return fmt.Sprintf(newsPrompt, query)
	}
	return fmt.Sprintf(webPrompt, query)
}

func failureMessage(kind Kind, query string) string {
	if kind == News {
		return fmt.Sprintf("I'm unable to fetch current news about '%s' right now. Please try again later.", query)
	}
	return fmt.Sprintf("I'm unable to search for current information about '%s' right now. Please try again later.", query)
}
