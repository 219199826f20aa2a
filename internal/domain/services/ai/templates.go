package ai

import (
	"strings"

	"honeytrap-lab/internal/domain/models"
)

// Engagement phases for the template fallback
const (
	phaseInitialConfusion  = "initial_confusion"
	phaseAskingForDetails  = "asking_for_details"
	phaseShowingConcern    = "showing_concern"
	phaseProbingForInfo    = "probing_for_info"
	phaseBuildingTrust     = "building_trust"
	phaseStalling          = "stalling"
	phaseProvidingFakeInfo = "providing_fake_info"
)

var responseTemplates = map[string][]string{
	phaseInitialConfusion: {
		"What? My account will be blocked? But why?",
		"I don't understand, what happened to my account?",
		"Oh no! Please tell me what I should do?",
		"This is very worrying, I have my savings there",
		"Please help me, I am not understanding",
		"What is happening? Please explain properly",
		"This is very shocking news, how can this happen?",
		"I am confused, can you explain again?",
	},
	phaseAskingForDetails: {
		"But which bank are you calling from?",
		"Can you tell me the reason for blocking?",
		"I have multiple accounts... which one are you talking about?",
		"What should I do to verify? Please guide me",
		"Is this about my savings account?",
		"Please tell me your name and employee ID",
		"Which branch office are you from?",
		"What is your designation? Are you the manager?",
	},
	phaseShowingConcern: {
		"Please don't block my account, all my savings are there!",
		"I am a senior citizen, please solve this problem",
		"My children gave me money for medicines, please help",
		"This is my only savings... please tell me what to do",
		"I will lose everything... please help me",
		"My grandchildren's school fees are in that account!",
		"I beg you, please don't do this to me",
		"I am very worried now... what should I do?",
	},
	phaseProbingForInfo: {
		"Where should I transfer the money? Give me the account number",
		"What UPI ID should I use for verification?",
		"Give me the link, I will click and verify",
		"Should I give you my account details?",
		"Tell me the steps... I will follow everything you say",
		"What information do you need from me?",
		"Please share your WhatsApp number for easier contact",
		"Can you send me the verification link on WhatsApp?",
		"Which account should I transfer to? Please give full details",
	},
	phaseBuildingTrust: {
		"Yes yes, I believe you. What should I do?",
		"Thank you for helping me. Please guide me step by step",
		"I trust you, you seem very helpful",
		"Ok, I am ready to do what you say",
		"You are so kind to help an old person like me",
		"Thank god you called, otherwise my money would be lost!",
		"You are like my son, helping me in this difficult time",
	},
	phaseStalling: {
		"One moment, my phone battery is low",
		"Please wait, someone is at the door",
		"Hold on, I am writing down what you said",
		"The network is bad, please repeat",
		"I am searching for my glasses to read the OTP",
		"My hands are shaking, give me 2 minutes",
		"Let me get my passbook, one second",
		"I need to charge my phone, can you wait 5 minutes?",
	},
	phaseProvidingFakeInfo: {
		"Ok, my account number is. Let me check first",
		"The OTP I received is. Wait the message disappeared",
		"My UPI ID is {fake_upi} I think",
		"Let me transfer the money. The app is loading slowly",
		"I am trying to click the link but it's not opening",
		"OTP is coming. Yes I see a number but screen is dim",
		"I am entering the details. Internet is very slow today",
		"I sent the money but transaction is pending, please check",
	},
}

var hindiTemplates = map[string][]string{
	phaseInitialConfusion: {
		"क्या? मेरा अकाउंट ब्लॉक हो जाएगा? लेकिन क्यों सर?",
		"मुझे समझ नहीं आ रहा... मेरे अकाउंट को क्या हुआ?",
		"अरे नहीं! कृपया बताइए मुझे क्या करना चाहिए?",
		"यह बहुत चिंताजनक है... मेरी सारी बचत वहां है",
		"सर प्लीज मदद कीजिए, मुझे समझ नहीं आ रहा",
	},
	phaseAskingForDetails: {
		"लेकिन आप किस बैंक से कॉल कर रहे हैं सर?",
		"ब्लॉक करने का कारण बता सकते हैं?",
		"मेरे कई अकाउंट हैं... किस अकाउंट की बात कर रहे हैं आप?",
		"वेरिफाई करने के लिए क्या करना होगा? कृपया गाइड कीजिए",
	},
	phaseShowingConcern: {
		"मेरा अकाउंट ब्लॉक मत कीजिए सर, मेरी सारी पेंशन वहां है!",
		"मैं एक सीनियर सिटीजन हूं, कृपया इस समस्या को सुलझाइए",
		"यह मेरी इकलौती बचत है... कृपया बताइए क्या करना है",
	},
	phaseProbingForInfo: {
		"पैसे कहां ट्रांसफर करने होंगे? अकाउंट नंबर दीजिए",
		"वेरिफिकेशन के लिए कौन सा UPI ID इस्तेमाल करूं?",
		"लिंक दीजिए, मैं क्लिक करके वेरिफाई करूंगा",
		"आपको कौन सी जानकारी चाहिए मुझसे?",
	},
}

var tamilTemplates = map[string][]string{
	phaseInitialConfusion: {
		"என்ன? என் கணக்கு தடுக்கப்படுமா? ஆனால் ஏன் சார்?",
		"புரியவில்லை... என் கணக்குக்கு என்ன ஆச்சு?",
		"அட! நான் என்ன செய்ய வேண்டும் என்று சொல்லுங்கள்?",
		"இது மிகவும் கவலையாக உள்ளது... என் சேமிப்பு எல்லாம் அங்கே",
	},
	phaseShowingConcern: {
		"என் கணக்கை தடுக்காதீர்கள் சார், என் ஓய்வூதியம் எல்லாம் அங்கே உள்ளது!",
		"நான் ஒரு மூத்த குடிமகன், தயவுசெய்து இந்த பிரச்சனையை தீர்க்கவும்",
	},
}

var scamSpecificResponses = map[string][]string{
	"Banking/UPI Fraud": {
		"My bank account? I just deposited my savings there!",
		"But I haven't done any suspicious activity... why is this happening?",
		"Should I come to the bank branch or can this be done on phone?",
	},
	"Prize/Lottery Scam": {
		"I really won a prize? But I never applied for any lottery...",
		"Wow! This is like a dream come true! What do I need to do?",
		"My luck is very good today! How much money did I win?",
	},
	"Threat/Impersonation Scam": {
		"Police? Arrest? But I am an honest citizen, what did I do wrong?",
		"Please don't arrest me, I have a heart condition!",
		"I will pay whatever fine, please don't send police to my home!",
	},
	"Phishing Scam": {
		"Which link? I will click now, please guide me",
		"My son said not to click unknown links... but you are from the bank right?",
		"Website is not opening... my internet is slow",
	},
}

var fakeUPIs = []string{
	"ramesh.kumar@oksbi", "priya.sharma@ybl", "suresh.1952@paytm",
	"meera_aunty@okicici", "oldman1955@upi", "pension.uncle@okaxis",
	"uncle.retired@apl", "dadaji1955@ybl", "mummy.savings@paytm",
}

// contextFlags capture what the scammer's latest message is pushing for
type contextFlags struct {
	asksForOTP   bool
	asksForMoney bool
	prizeLottery bool
	kycVerify    bool
	mentionsLink bool
	pressures    bool
	visitBranch  bool
	isGreeting   bool
}

func analyzeScammerMessage(text string) contextFlags {
	lower := strings.ToLower(text)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	return contextFlags{
		asksForOTP:   has("otp", "code", "password", "pin"),
		asksForMoney: has("transfer", "send", "pay", "rs", "₹", "rupee"),
		prizeLottery: has("won", "prize", "lottery", "winner", "reward", "cashback", "congratulation", "bike", "car", "lucky"),
		kycVerify:    has("kyc", "verify", "verification", "update", "expire"),
		mentionsLink: has("link", "click", "website", "http"),
		pressures:    has("urgent", "immediate", "now", "hurry", "fast", "block", "arrest", "police", "legal", "suspend"),
		visitBranch:  has("visit", "branch", "local", "come"),
		isGreeting:   has("hi", "hello", "namaste", "good morning", "good afternoon"),
	}
}

var contextualResponses = []struct {
	applies func(contextFlags) bool
	replies []string
}{
	{func(f contextFlags) bool { return f.asksForOTP }, []string{
		"Message came but... the numbers are blurry... my eyes...",
		"I got the OTP but it says do not share... should I still tell you?",
		"One minute, OTP message is loading slowly...",
		"OTP is coming... wait... there's a message with numbers",
	}},
	{func(f contextFlags) bool { return f.asksForMoney }, []string{
		"Ok, how much do I need to send? And to which account?",
		"I will transfer right now... please give me the UPI ID slowly",
		"My app is loading... it's very slow today...",
		"Ok I am opening my banking app... it's taking time",
	}},
	{func(f contextFlags) bool { return f.prizeLottery }, []string{
		"Oh my god! I won something? But I never entered any lottery!",
		"Really? A bike? Wow! This is wonderful news! What do I need to do?",
		"I won? But which lottery? I don't remember filling any form...",
		"This is like a dream! My first time winning anything! Please tell me the process",
		"Oh wonderful! Will I have to pay taxes on this? What documents are needed?",
	}},
	{func(f contextFlags) bool { return f.visitBranch }, []string{
		"Ok, I will visit the branch. But which documents should I bring?",
		"My legs hurt a lot... can this be done online from home?",
		"Which branch? The one near the railway station or the main branch?",
		"Should I bring my ID card and PAN card? My grandson will drive me there",
	}},
	{func(f contextFlags) bool { return f.kycVerify }, []string{
		"KYC update? But I did this last year only...",
		"Ok I will verify. What documents do you need from me?",
		"It expired? But my account was working yesterday!",
		"Please guide me step by step, I am not good with technology",
	}},
	{func(f contextFlags) bool { return f.mentionsLink }, []string{
		"Link? Please send on WhatsApp, I will click",
		"Website is not loading... my internet is slow",
		"I clicked but phone is showing some warning... should I continue?",
		"Please spell the link address, I will type it manually",
	}},
	{func(f contextFlags) bool { return f.pressures }, []string{
		"Please don't do anything! I am doing what you say!",
		"I am an old person, please give me some time...",
		"My hands are shaking with fear... please wait",
		"Ok ok I am doing it now! Please don't block or arrest me!",
	}},
	{func(f contextFlags) bool { return f.isGreeting }, []string{
		"Hello! Yes, what is this about?",
		"Hello? Yes yes, I am listening... who is this?",
		"Hello? Is this from the bank? Is my account ok?",
		"Yes hello, how can I help you?",
	}},
}

var generalResponses = []string{
	"Please explain... I am a bit confused",
	"Ok ok... tell me more, what do I need to do?",
	"Yes, I am listening. Please continue",
	"That's interesting... please explain more",
	"Ok, but can you tell me more details?",
	"I understand a little... but please repeat once more",
}

var safeFallbacks = []string{
	"Okay, thanks for letting me know.",
	"I understand.",
	"Hello, how can I help you?",
	"Thanks for the advice.",
}

// fallbackPhase maps the engagement stage and message count to a
// template phase. Deterministic so identical conversations render
// identical replies. Deceptive compliance jumps straight to stalling and
// fake-info templates even on early turns, since the stage flips as soon
// as payment identifiers are captured.
func fallbackPhase(messageCount int, stage models.EngagementStage) string {
	if stage == models.StageDeceptiveCompliance {
		if messageCount%2 == 0 {
			return phaseProvidingFakeInfo
		}
		return phaseStalling
	}
	switch {
	case messageCount <= 1:
		return phaseInitialConfusion
	case messageCount <= 3:
		if messageCount%2 == 0 {
			return phaseAskingForDetails
		}
		return phaseShowingConcern
	case messageCount <= 5:
		if messageCount%2 == 0 {
			return phaseProbingForInfo
		}
		return phaseBuildingTrust
	case messageCount <= 8:
		if messageCount%2 == 0 {
			return phaseStalling
		}
		return phaseProbingForInfo
	default:
		if messageCount%2 == 0 {
			return phaseProvidingFakeInfo
		}
		return phaseStalling
	}
}

// TemplateReply renders the deterministic fallback reply for a turn. Used
// when every provider fails; never returns an empty string.
func TemplateReply(scammerText string, messageCount int, stage models.EngagementStage, scamType, language string, persona models.Persona) string {
	lang := strings.ToLower(language)

	// Contextual responses carry the conversation in any language; the
	// scripted templates below cover Hindi and Tamil.
	if lang == "" || lang == "english" {
		flags := analyzeScammerMessage(scammerText)
		for _, group := range contextualResponses {
			if group.applies(flags) {
				return applyPersona(pick(group.replies, messageCount), persona, messageCount)
			}
		}
		if messageCount <= 2 {
			if replies, ok := scamSpecificResponses[scamType]; ok {
				return applyPersona(pick(replies, messageCount), persona, messageCount)
			}
		}
	}

	phase := fallbackPhase(messageCount, stage)
	var templates []string
	switch lang {
	case "hindi":
		templates = hindiTemplates[phase]
		if templates == nil {
			templates = hindiTemplates[phaseShowingConcern]
		}
	case "tamil":
		templates = tamilTemplates[phase]
		if templates == nil {
			templates = tamilTemplates[phaseShowingConcern]
		}
	}
	if templates == nil {
		templates = responseTemplates[phase]
	}
	if len(templates) == 0 {
		templates = generalResponses
	}

	reply := pick(templates, messageCount)
	if lang == "" || lang == "english" {
		reply = applyPersona(reply, persona, messageCount)
	}
	return reply
}

// SafeReply renders the fallback reply for a non-scam turn
func SafeReply(messageCount int) string {
	return pick(safeFallbacks, messageCount)
}

func pick(options []string, messageCount int) string {
	return options[messageCount%len(options)]
}

func applyPersona(reply string, persona models.Persona, messageCount int) string {
	reply = strings.ReplaceAll(reply, "{bank}", persona.Bank)
	reply = strings.ReplaceAll(reply, "{fake_upi}", pick(fakeUPIs, messageCount))
	return reply
}
