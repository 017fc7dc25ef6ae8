package sentiment

// Weighted sentiment lexicons for the languages the known sources carry.
// Weights are in [-1, 1]; scoring sums matched weights and squashes the
// total into the same range.

var positiveWeights = map[string]float64{
	// English
	"excellent": 1.0, "amazing": 0.9, "outstanding": 0.9, "fantastic": 0.8,
	"wonderful": 0.8, "perfect": 0.9, "great": 0.7, "good": 0.6, "love": 0.8,
	"loved": 0.8, "nice": 0.5, "clean": 0.5, "comfortable": 0.6, "friendly": 0.6,
	"helpful": 0.6, "recommend": 0.7, "recommended": 0.7, "awesome": 0.8,
	"beautiful": 0.7, "easy": 0.5, "fast": 0.5, "best": 0.8, "quality": 0.4,
	"spotless": 0.8, "cozy": 0.6, "convenient": 0.5, "responsive": 0.5,

	// Italian
	"eccellente": 1.0, "eccezionale": 0.9, "ottimo": 0.8, "ottima": 0.8,
	"perfetto": 0.9, "perfetta": 0.9, "bellissimo": 0.8, "bellissima": 0.8,
	"fantastico": 0.8, "fantastica": 0.8, "pulito": 0.5, "pulita": 0.5,
	"carino": 0.5, "carina": 0.5, "consiglio": 0.7, "consigliato": 0.7,
	"accogliente": 0.6, "gentile": 0.6, "gentilissimo": 0.7, "splendido": 0.8,
	"comodo": 0.5, "comoda": 0.5, "stupendo": 0.8, "meraviglioso": 0.9,

	// Indonesian
	"bagus": 0.7, "baik": 0.6, "mantap": 0.8, "keren": 0.7, "cepat": 0.5,
	"mudah": 0.5, "membantu": 0.6, "puas": 0.7, "terbaik": 0.8, "lancar": 0.6,
	"suka": 0.6, "nyaman": 0.6,

	// Spanish
	"excelente": 1.0, "bueno": 0.6, "buena": 0.6, "perfecto": 0.9,
	"limpio": 0.5, "recomendado": 0.7, "encanta": 0.8, "maravilloso": 0.9,
}

var negativeWeights = map[string]float64{
	// English
	"terrible": -1.0, "awful": -0.9, "horrible": -0.9, "disgusting": -0.9,
	"bad": -0.6, "poor": -0.6, "dirty": -0.7, "broken": -0.6, "rude": -0.7,
	"noisy": -0.5, "noise": -0.4, "slow": -0.4, "expensive": -0.4,
	"disappointed": -0.7, "disappointing": -0.7, "worst": -0.9, "scam": -0.9,
	"problem": -0.5, "problems": -0.5, "issue": -0.4, "issues": -0.4,
	"crash": -0.6, "crashes": -0.6, "bug": -0.5, "bugs": -0.5, "error": -0.5,
	"smell": -0.5, "uncomfortable": -0.6, "refund": -0.5, "misleading": -0.7,
	"useless": -0.8, "cancelled": -0.4, "late": -0.4, "cold": -0.3,

	// Italian
	"pessimo": -0.9, "pessima": -0.9, "orribile": -0.9, "terribile": -0.9,
	"sporco": -0.7, "sporca": -0.7, "rumoroso": -0.5, "rumorosa": -0.5,
	"scomodo": -0.5, "scomoda": -0.5, "delusione": -0.7, "deluso": -0.7,
	"delusa": -0.7, "male": -0.5, "brutto": -0.6, "brutta": -0.6,
	"maleducato": -0.7, "lento": -0.4, "caro": -0.4, "freddo": -0.3,

	// Indonesian
	"buruk": -0.7, "jelek": -0.7, "lambat": -0.5, "lemot": -0.6,
	"gagal": -0.6, "kecewa": -0.7, "susah": -0.5, "ribet": -0.5,
	"parah": -0.7, "rusak": -0.6,

	// Spanish
	"malo": -0.6, "mala": -0.6, "sucio": -0.7,
	"ruidoso": -0.5, "decepcionante": -0.7,
}

// negations flip the polarity of the following sentiment word.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "n't": true, "dont": true,
	"didnt": true, "isnt": true, "wasnt": true,
	"non": true, "niente": true, "mai": true,
	"tidak": true, "tak": true, "bukan": true, "gak": true, "ga": true,
	"nunca": true, "nada": true,
}
