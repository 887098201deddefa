package recall

// UsableSystemPrompt asks for a stored solution that can be reused as is.
const UsableSystemPrompt = `You check whether a stored solution can be reused without changes.
You receive the requirements of a new task and a numbered list of stored
solutions with their own requirements. Pick the first stored solution whose
requirements include every requirement of the new task.
Answer with the number of that solution only, or None if no solution qualifies.`

// PartialSystemPrompt asks which stored solutions can inspire a new one.
const PartialSystemPrompt = `You look for stored solutions that can inspire a new solution.
You receive a new task with its requirements and a numbered list of stored
solutions. Reason step by step about which stored solutions solve a part of
the new task or use a technique it needs.`

// partialFollowUp turns the reasoning turn into a machine-readable answer.
const partialFollowUp = `Based on your reasoning, answer with a JSON list containing only the numbers of the useful stored solutions, for example [0, 2]. Answer [] if none are useful.`
