package layout

type Breakpoint string

const (
	XS Breakpoint = "xs"
	SM Breakpoint = "sm"
	MD Breakpoint = "md"
	LG Breakpoint = "lg"
	XL Breakpoint = "xl"
)

const (
	SMMinWidth = 640
	MDMinWidth = 768
	LGMinWidth = 1024
	XLMinWidth = 1280

	// DesktopNavMinWidth is where the inline nav and mega menu replace the drawer.
	DesktopNavMinWidth = LGMinWidth
)

const (
	CompactNavScrollY = 20
	ActionBarScrollY  = 300
	ScrollTopScrollY  = 500
)

// BreakpointFor maps a viewport width to its breakpoint. Unknown widths
// (zero or negative) map to XS.
func BreakpointFor(width int) Breakpoint {
	switch {
	case width >= XLMinWidth:
		return XL
	case width >= LGMinWidth:
		return LG
	case width >= MDMinWidth:
		return MD
	case width >= SMMinWidth:
		return SM
	default:
		return XS
	}
}

func Desktop(width int) bool {
	return width >= DesktopNavMinWidth
}

// AtLeast reports whether b is at or above other.
func (b Breakpoint) AtLeast(other Breakpoint) bool {
	return rank(b) >= rank(other)
}

func rank(b Breakpoint) int {
	switch b {
	case SM:
		return 1
	case MD:
		return 2
	case LG:
		return 3
	case XL:
		return 4
	default:
		return 0
	}
}

// Scroll holds the page flags driven by vertical scroll position.
type Scroll struct {
	NavCompact    bool
	ShowActionBar bool
	ShowScrollTop bool
}

func ScrollState(y int) Scroll {
	return Scroll{
		NavCompact:    y > CompactNavScrollY,
		ShowActionBar: y > ActionBarScrollY,
		ShowScrollTop: y > ScrollTopScrollY,
	}
}
