package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters1D struct {
	Title           string  `json:"Title"`
	PolynomialOrder int     `json:"PolynomialOrder"`
	Elements        int     `json:"Elements"`
	XMin            float64 `json:"XMin"`
	XMax            float64 `json:"XMax"`
	Layout          string  `json:"Layout"`        // conforming, duplicated or discontinuous
	AssemblyLevel   string  `json:"AssemblyLevel"` // full, element or matrixfree
	Solver          string  `json:"Solver"`        // cg, sparselu or denselu
	Tolerance       float64 `json:"Tolerance"`
	MaxIterations   int     `json:"MaxIterations"`
	Penalty         float64 `json:"Penalty"` // interior penalty for the discontinuous layout
	ParallelDegree  int     `json:"ParallelDegree"`
	// BCs maps a BC type to the boundary attributes it applies to,
	// the left end of the mesh is attribute 1, the right end 2
	BCs map[string][]int `json:"BCs"`
}

func NewInputParameters1D() *InputParameters1D {
	return &InputParameters1D{
		Title:           "Poisson 1D",
		PolynomialOrder: 2,
		Elements:        16,
		XMin:            0,
		XMax:            1,
		Layout:          "conforming",
		AssemblyLevel:   "full",
		Solver:          "cg",
		Tolerance:       1.e-12,
		Penalty:         10,
		ParallelDegree:  1,
		BCs:             map[string][]int{"Dirichlet": {1, 2}},
	}
}

// Parse overlays the YAML data onto the receiver, keys absent from data keep
// their current value.
func (ip *InputParameters1D) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters1D) Validate() (err error) {
	var problems []string
	if ip.PolynomialOrder < 1 {
		problems = append(problems, fmt.Sprintf("PolynomialOrder must be >= 1, have %d", ip.PolynomialOrder))
	}
	if ip.Elements < 1 {
		problems = append(problems, fmt.Sprintf("Elements must be >= 1, have %d", ip.Elements))
	}
	if ip.XMax <= ip.XMin {
		problems = append(problems, fmt.Sprintf("XMax (%g) must exceed XMin (%g)", ip.XMax, ip.XMin))
	}
	if ip.Tolerance < 0 || ip.MaxIterations < 0 || ip.Penalty < 0 {
		problems = append(problems, "Tolerance, MaxIterations and Penalty must not be negative")
	}
	for key, attrs := range ip.BCs {
		if key != "Dirichlet" {
			problems = append(problems, fmt.Sprintf("unsupported BC type %q", key))
		}
		for _, a := range attrs {
			if a != 1 && a != 2 {
				problems = append(problems, fmt.Sprintf("BCs[%s]: boundary attribute %d is not 1 or 2", key, a))
			}
		}
	}
	if len(problems) != 0 {
		sort.Strings(problems)
		err = fmt.Errorf("invalid input parameters:\n\t%s", strings.Join(problems, "\n\t"))
	}
	return
}

func (ip *InputParameters1D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t\t= Elements\n", ip.Elements)
	fmt.Printf("[%8.5f,%8.5f]\t= Domain\n", ip.XMin, ip.XMax)
	fmt.Printf("[%s]\t\t\t= Layout\n", ip.Layout)
	fmt.Printf("[%s]\t\t\t= Assembly Level\n", ip.AssemblyLevel)
	fmt.Printf("[%s]\t\t\t= Solver\n", ip.Solver)
	fmt.Printf("%8.3g\t\t= Tolerance\n", ip.Tolerance)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
