package classifier

// Intent labels. The field-bearing intents map straight onto project
// record fields in the execution stage; the rest either short-circuit
// with a canned reply or fall through to the LLM.
const (
	IntentScopeDefine        = "scope.define"
	IntentTimelineSet        = "timeline.set"
	IntentBudgetSet          = "budget.set"
	IntentDeliverablesDefine = "deliverables.define"
	IntentDependenciesDefine = "dependencies.define"
	IntentResponsePositive   = "response.positive"
	IntentResponseNegative   = "response.negative"
	IntentGreeting           = "greeting"
	IntentFarewell           = "farewell"
	IntentThanks             = "thanks"
	IntentHelpRequest        = "help.request"
	IntentStatusCheck        = "status.check"
	IntentQuestionGeneral    = "question.general"
	IntentSmalltalk          = "smalltalk"
	IntentCorrection         = "correction"
	IntentClarification      = "clarification.request"
	IntentUrgencySet         = "urgency.set"
	IntentContactInfo        = "contact.info"
	IntentProjectNew         = "project.new"
	IntentUnknown            = "unknown"
)

// trainingCorpus is the baked-in example set, roughly a dozen
// utterances per intent. Training happens once; the resulting model is
// persisted and only rebuilt when ModelVersion changes.
var trainingCorpus = map[string][]string{
	IntentScopeDefine: {
		"i want to build a website for my bakery",
		"the project is a mobile app for tracking workouts",
		"we need an online store for selling handmade furniture",
		"i'm looking to create a booking system for my salon",
		"the scope is a redesign of our company homepage",
		"it's a dashboard for visualizing sales data",
		"we want a customer portal with login and invoices",
		"building an internal tool for managing inventory",
		"i need a landing page for our new product launch",
		"the project covers a blog and a newsletter signup",
		"we are making a marketplace that connects tutors and students",
		"an api that other teams can integrate with",
	},
	IntentTimelineSet: {
		"we need it done by march",
		"the deadline is the end of next month",
		"launch should happen before the holidays",
		"we have about six weeks for this",
		"timeline is three months from kickoff",
		"it has to be live by the 15th",
		"we're aiming for a summer release",
		"delivery expected within two weeks",
		"the timeline is flexible but ideally next quarter",
		"must ship before the conference in october",
		"we want to start next week and finish in a month",
	},
	IntentBudgetSet: {
		"budget is $5,000",
		"we have about 10000 to spend",
		"the budget is around twenty thousand dollars",
		"we can spend up to $2,500 on this",
		"our budget caps out at 15k",
		"i've allocated $8,000 for the project",
		"we're working with a budget of three thousand",
		"max spend is $50,000",
		"the client approved 12000 for this work",
		"budget wise we have 7500 dollars",
		"we can afford about $1,200",
	},
	IntentDeliverablesDefine: {
		"deliverables are the design files and the final site",
		"we need wireframes, mockups and the deployed app",
		"the deliverable is a working prototype",
		"expected outputs are a report and a presentation",
		"deliverables include source code and documentation",
		"we want the logo files and a style guide",
		"final deliverable is the installed system plus training",
		"you should deliver a test plan and the test results",
		"the main deliverable is the api with docs",
		"we expect monthly progress reports as deliverables",
	},
	IntentDependenciesDefine: {
		"this depends on the branding work finishing first",
		"we're blocked on the api from the other vendor",
		"it depends on legal approving the terms",
		"the content team has to provide copy before we start",
		"there's a dependency on the payment provider integration",
		"we need the hardware delivered before development",
		"this can't start until the database migration is done",
		"it relies on the design system being ready",
		"we depend on a third party for the shipping rates",
		"waiting on credentials from the it department",
	},
	IntentResponsePositive: {
		"yes",
		"yes that's right",
		"correct",
		"exactly",
		"sounds good",
		"that works for me",
		"yep",
		"sure",
		"absolutely",
		"that's correct",
		"right",
		"ok yes",
	},
	IntentResponseNegative: {
		"no",
		"no that's wrong",
		"not quite",
		"that's not right",
		"nope",
		"incorrect",
		"no that doesn't work",
		"not really",
		"i don't think so",
		"that's not what i meant",
	},
	IntentGreeting: {
		"hi",
		"hello",
		"hey there",
		"good morning",
		"good afternoon",
		"hi there",
		"hello, i'd like some help",
		"hey",
		"greetings",
	},
	IntentFarewell: {
		"bye",
		"goodbye",
		"see you later",
		"talk soon",
		"that's all for now",
		"i have to go",
		"catch you later",
		"bye for now",
	},
	IntentThanks: {
		"thanks",
		"thank you",
		"thanks a lot",
		"much appreciated",
		"thank you so much",
		"cheers, thanks",
		"appreciate it",
	},
	IntentHelpRequest: {
		"can you help me",
		"i need help with my project",
		"help",
		"i'm not sure what to do",
		"can you assist me with this",
		"i could use some guidance",
		"how does this work",
		"what can you do",
	},
	IntentStatusCheck: {
		"what's the status of my project",
		"where are we at",
		"how is the project going",
		"can you give me a summary so far",
		"what do you have so far",
		"show me the current state",
		"what's still missing",
		"recap what we've covered",
	},
	IntentQuestionGeneral: {
		"how long do projects like this usually take",
		"what's a reasonable budget for a website",
		"do you think we need a mobile app too",
		"what technology would you recommend",
		"is it better to launch early or polish first",
		"what do other clients usually ask for",
		"should we hire a designer separately",
	},
	IntentSmalltalk: {
		"how are you today",
		"nice weather we're having",
		"did you have a good weekend",
		"how's it going",
		"what's up",
		"hope you're doing well",
	},
	IntentCorrection: {
		"actually i meant something else",
		"let me correct that",
		"change that, the budget is different",
		"scratch that last part",
		"i misspoke earlier",
		"update what i said before",
		"that was a mistake, let me rephrase",
	},
	IntentClarification: {
		"what do you mean by scope",
		"can you explain that question",
		"i don't understand what you're asking",
		"could you rephrase that",
		"what exactly do you need from me",
		"can you clarify",
	},
	IntentUrgencySet: {
		"this is urgent",
		"we need this asap",
		"it's not urgent, take your time",
		"high priority, please hurry",
		"no rush on this one",
		"this is time sensitive",
		"it can wait until next month",
	},
	IntentContactInfo: {
		"you can reach me at my work email",
		"my phone number is on file",
		"contact me through the office line",
		"email is the best way to reach me",
		"here's my contact information",
		"call me on my mobile",
	},
	IntentProjectNew: {
		"i'd like to start a new project",
		"let's begin a fresh project",
		"can we set up another project",
		"new project please",
		"i have another project to discuss",
		"start over with a new project",
	},
	IntentUnknown: {
		"asdf",
		"lorem ipsum dolor",
		"xyzzy",
		"qwerty uiop",
		"random words here banana telescope",
	},
}

// cannedAnswers are the fast-path replies. Intents without an entry
// always take the LLM path regardless of confidence.
var cannedAnswers = map[string]string{
	IntentBudgetSet:          "Got it, budget noted.",
	IntentTimelineSet:        "Thanks, I've noted the timeline.",
	IntentScopeDefine:        "Great, I've captured that as the project scope.",
	IntentDeliverablesDefine: "Noted, I've added that to the deliverables.",
	IntentDependenciesDefine: "Understood, I've recorded that dependency.",
	IntentResponsePositive:   "Great, thanks for confirming.",
	IntentResponseNegative:   "Thanks for letting me know, I've updated my notes.",
	IntentGreeting:           "Hello! Tell me a bit about the project you have in mind.",
	IntentFarewell:           "Thanks for your time! I'll keep everything we discussed on file.",
	IntentThanks:             "You're welcome! Anything else about the project?",
}
