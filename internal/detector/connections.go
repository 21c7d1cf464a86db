package detector

import "image"

// Connection joins two landmark indices.
type Connection [2]int

// HandConnections is the hand skeleton.
var HandConnections = []Connection{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// PoseConnections is the body skeleton.
var PoseConnections = []Connection{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8}, {9, 10},
	{11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21}, {17, 19},
	{12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
	{11, 23}, {12, 24}, {23, 24}, {23, 25}, {24, 26}, {25, 27}, {26, 28},
	{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
}

// FaceOvalConnections outlines the face mesh.
var FaceOvalConnections = []Connection{
	{10, 338}, {338, 297}, {297, 332}, {332, 284}, {284, 251}, {251, 389},
	{389, 356}, {356, 454}, {454, 323}, {323, 361}, {361, 288}, {288, 397},
	{397, 365}, {365, 379}, {379, 378}, {378, 400}, {400, 377}, {377, 152},
	{152, 148}, {148, 176}, {176, 149}, {149, 150}, {150, 136}, {136, 172},
	{172, 58}, {58, 132}, {132, 93}, {93, 234}, {234, 127}, {127, 162},
	{162, 21}, {21, 54}, {54, 103}, {103, 67}, {67, 109}, {109, 10},
}

// BoxConnections are the edges of an objectron box; index 0 is the centre.
var BoxConnections = []Connection{
	{1, 2}, {1, 3}, {1, 5}, {2, 4}, {2, 6}, {3, 4},
	{3, 7}, {4, 8}, {5, 6}, {5, 7}, {6, 8}, {7, 8},
}

// ToPixel scales a normalized point into a w x h frame.
func ToPixel(p Point3D, w, h int) image.Point {
	return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
}

// ToPixels scales normalized points into a w x h frame.
func ToPixels(points []Point3D, w, h int) []image.Point {
	out := make([]image.Point, len(points))
	for i, p := range points {
		out[i] = ToPixel(p, w, h)
	}
	return out
}

// PixelBounds returns the pixel bounding box of points, clipped to the frame.
func PixelBounds(points []Point3D, w, h int) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	first := ToPixel(points[0], w, h)
	r := image.Rectangle{Min: first, Max: first}
	for _, p := range points[1:] {
		px := ToPixel(p, w, h)
		r.Min.X = min(r.Min.X, px.X)
		r.Min.Y = min(r.Min.Y, px.Y)
		r.Max.X = max(r.Max.X, px.X)
		r.Max.Y = max(r.Max.Y, px.Y)
	}
	return r.Intersect(image.Rect(0, 0, w, h))
}

// Scale multiplies x and y of every point by s, leaving z untouched.
func Scale(points []Point3D, s float64) []Point3D {
	out := make([]Point3D, len(points))
	for i, p := range points {
		out[i] = Point3D{X: p.X * s, Y: p.Y * s, Z: p.Z}
	}
	return out
}
