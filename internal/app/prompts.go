package app

// DefaultPrompts seeds the random prompt picker.
var DefaultPrompts = []string{
	"a photo of a red object",
	"a photo of a dog",
	"a photo of a cat",
	"a photo of a tree",
	"a photo of a bicycle",
	"a photo of a cup of coffee",
	"a photo of a book",
	"a photo of a car",
	"a photo of a flower",
	"a photo of a shoe",
	"a photo of the sky",
	"a photo of something round",
	"a photo of a clock",
	"a photo of a plant",
	"a photo of a street sign",
	"a photo of food",
	"a photo of a chair",
	"a photo of water",
	"a photo of a window",
	"a photo of a smiling person",
}
