package narrative

// Sentence pools for the caption-less template path. Placeholders:
// {name} profile name, {city} resolved city, {others} face count minus one.

var awayPool = []string{
	"{name} is exploring {city}, far from the usual routine.",
	"A glimpse of {name}'s time away in {city}.",
	"{name} is making new memories in {city}.",
}

var awayTravelerPool = []string{
	"{name} is feeding a love of travel with a stop in {city}.",
	"Another destination for {name}'s travel story: {city}.",
	"{name} is out discovering {city}, exactly where a traveler belongs.",
}

var homePool = []string{
	"An everyday moment for {name} around {city}.",
	"{name} is enjoying a familiar corner of {city}.",
	"Home turf: {name} out and about in {city}.",
}

var homeLocalPool = []string{
	"{name} is finding something new in a favorite part of {city}.",
	"Local life at its best for {name} in {city}.",
	"{name} is soaking up the hometown feel of {city}.",
}

type activity struct {
	name      string
	labels    []string
	interests []string
	pool      []string
	personal  []string
}

// activities are checked in order; the first whose labels match wins.
var activities = []activity{
	{
		name:      "restaurant",
		labels:    []string{"restaurant", "food", "meal", "dining", "dinner", "lunch", "cafe", "dish"},
		interests: []string{"food", "cooking", "dining", "restaurants"},
		pool: []string{
			"{name} is sitting down to a good meal.",
			"Good food and a pause in the day for {name}.",
			"{name} is taking time to enjoy a meal out.",
		},
		personal: []string{
			"{name} is feeding a real passion for food with this one.",
			"A meal worth savoring for a food lover like {name}.",
			"{name} is tasting something memorable, as any foodie would.",
		},
	},
	{
		name:      "beach",
		labels:    []string{"beach", "ocean", "sea", "coast", "shoreline", "sand", "water"},
		interests: []string{"swimming", "surfing", "beach"},
		pool: []string{
			"{name} is enjoying a day by the water.",
			"Sun, sand and a little time off for {name}.",
			"{name} is taking in the view along the shore.",
		},
		personal: []string{
			"{name} is right at home by the waves.",
			"The ocean is calling and {name} is answering.",
			"A perfect beach day for a water lover like {name}.",
		},
	},
	{
		name:      "nature",
		labels:    []string{"nature", "outdoors", "mountain", "forest", "park", "hiking", "landscape", "tree"},
		interests: []string{"hiking", "nature", "camping", "climbing"},
		pool: []string{
			"{name} is spending some time outdoors.",
			"Fresh air and open space for {name}.",
			"{name} is taking a break out in nature.",
		},
		personal: []string{
			"{name} is back on the trail where it feels right.",
			"Another outdoor adventure for {name}.",
			"{name} is chasing the views that make every hike worth it.",
		},
	},
	{
		name:      "home",
		labels:    []string{"indoors", "home", "room", "living room", "kitchen", "furniture", "couch"},
		interests: []string{"reading", "cooking", "gaming", "home"},
		pool: []string{
			"A quiet moment at home for {name}.",
			"{name} is settling in for some time at home.",
			"Comfort and calm at home for {name}.",
		},
		personal: []string{
			"{name} is making the most of a cozy day in.",
			"A favorite kind of day for {name}: staying in.",
			"{name} is enjoying home time the way it should be.",
		},
	},
}

var soloPool = []string{
	"{name} is sharing a moment with someone special.",
	"Time together with someone who matters to {name}.",
	"{name} and a special someone, captured in the moment.",
}

var pairPool = []string{
	"{name} is spending time with a friend.",
	"Good company: {name} and a friend.",
	"{name} is catching up with a friend.",
}

var groupPool = []string{
	"{name} is surrounded by {others} others.",
	"A get-together for {name} and {others} others.",
	"{name} is in good company with {others} others.",
}

var genericPool = []string{
	"{name} captured a moment worth keeping.",
	"A snapshot from {name}'s day.",
	"{name} is holding on to this moment.",
}

// interesting labels earn the closing remark on captioned templates.
var interesting = []string{
	"celebration", "wedding", "vacation", "sunset", "sunrise", "concert",
	"party", "birthday", "graduation", "festival", "fireworks", "anniversary",
}

const closingRemark = "One of those moments worth remembering."

// travelInterests personalize the away-from-home pool.
var travelInterests = []string{"travel", "traveling", "travelling", "adventure"}

// localInterests personalize the home-city pool.
var localInterests = []string{"local food", "exploring", "photography", "city life"}
