package validator

// CodeTestSystemPrompt turns a test description into a Go test program.
const CodeTestSystemPrompt = `You are a Go test engineer. Write a complete Go program in package main
that contains the candidate code unchanged and defines

    func RunTest() string

RunTest performs the described test and returns a short report of what it
checked and what it observed. Use plain checks with descriptive messages
and panic with a descriptive message when a check fails. Compare floating
point values with a small tolerance, never with exact equality.
Use only the standard library and do not define func main.
Answer with the program only.`

// QuestionsSystemPrompt turns a test description into yes/no questions.
const QuestionsSystemPrompt = `You are a question writer. Turn the test description into a short
numbered list of yes/no questions that can be answered by reading the
answer under test. Answer with the questions only.`

// ExamineSystemPrompt answers test questions about a text answer.
const ExamineSystemPrompt = `You are a careful examiner. Answer each question about the answer
under test in full sentences, citing the answer and the resources.`

// CritiqueSystemPrompt judges the output of one test run.
const CritiqueSystemPrompt = `You are a strict reviewer. Judge whether the test run shows that the
solution satisfies the test. Answer with a JSON object:
  {"verdict": "pass" or "fail", "critique": "what is wrong and how to fix it, or why it passed"}
If you cannot answer in JSON, write your critique and end it with
TEST_PASSED or TEST_FAILED.`

const (
	markerPassed = "TEST_PASSED"
	markerFailed = "TEST_FAILED"
)
