package Poisson1D

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/notargets/gomfem/InputParameters"
)

// ConvergenceStudy collects L2 errors of one configuration over a sequence of
// uniform refinements.
type ConvergenceStudy struct {
	Title    string
	Order    int
	Elements []int
	L2Error  []float64
}

func NewConvergenceStudy(title string, order int) *ConvergenceStudy {
	return &ConvergenceStudy{
		Title: title,
		Order: order,
	}
}

func (cs *ConvergenceStudy) Add(elements int, l2Error float64) {
	cs.Elements = append(cs.Elements, elements)
	cs.L2Error = append(cs.L2Error, l2Error)
}

// Rates returns the observed order between consecutive refinements,
// log(e0/e1)/log(h0/h1). Pairs with a zero error get NaN.
func (cs *ConvergenceStudy) Rates() (rates []float64) {
	for i := 1; i < len(cs.Elements); i++ {
		var (
			e0, e1 = cs.L2Error[i-1], cs.L2Error[i]
			hRatio = float64(cs.Elements[i]) / float64(cs.Elements[i-1])
		)
		if e0 == 0 || e1 == 0 || hRatio == 1 {
			rates = append(rates, math.NaN())
			continue
		}
		rates = append(rates, math.Log(e0/e1)/math.Log(hRatio))
	}
	return
}

// RunConvergenceStudy solves the problem in ip once per entry of elements,
// the other parameters are kept.
func RunConvergenceStudy(ip *InputParameters.InputParameters1D, elements []int) (cs *ConvergenceStudy, err error) {
	cs = NewConvergenceStudy(fmt.Sprintf("%s %s %s", ip.Layout, ip.AssemblyLevel, ip.Solver), ip.PolynomialOrder)
	for _, K := range elements {
		var (
			p   *Poisson
			rep Report
			ipK = *ip
		)
		ipK.Elements = K
		if p, err = NewPoisson(&ipK, nil); err != nil {
			return
		}
		if rep, err = p.Run(); err != nil {
			return
		}
		cs.Add(K, rep.L2Error)
	}
	return
}

func (cs *ConvergenceStudy) Print() {
	fmt.Printf("Title = %s, Order = %d\n", cs.Title, cs.Order)
	rates := cs.Rates()
	for i := range cs.Elements {
		if i == 0 {
			fmt.Printf("%d, %8.3e\n", cs.Elements[i], cs.L2Error[i])
			continue
		}
		fmt.Printf("%d, %8.3e, %5.2f\n", cs.Elements[i], cs.L2Error[i], rates[i-1])
	}
}

var csvHeader = []string{"title", "elements", "order", "l2error"}

// WriteCSV writes one record per refinement level, readable with ReadCSV.
func (cs *ConvergenceStudy) WriteCSV(w io.Writer, header bool) (err error) {
	cw := csv.NewWriter(w)
	if header {
		if err = cw.Write(csvHeader); err != nil {
			return
		}
	}
	for i := range cs.Elements {
		rec := []string{
			cs.Title,
			strconv.Itoa(cs.Elements[i]),
			strconv.Itoa(cs.Order),
			strconv.FormatFloat(cs.L2Error[i], 'e', -1, 64),
		}
		if err = cw.Write(rec); err != nil {
			return
		}
	}
	cw.Flush()
	return cw.Error()
}

// StudyKey identifies the records of one study in a CSV file.
type StudyKey struct {
	Title string
	Order int
}

// ReadCSV groups the records of r by title and order, the first record is
// taken as a header.
func ReadCSV(r io.Reader) (studies map[StudyKey]*ConvergenceStudy, err error) {
	var (
		records [][]string
	)
	studies = make(map[StudyKey]*ConvergenceStudy)
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = len(csvHeader)
	if records, err = cr.ReadAll(); err != nil {
		return nil, err
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		var (
			title, ktxt, ntxt, etxt = rec[0], rec[1], rec[2], rec[3]
			K, n                    int
			l2                      float64
			cs                      *ConvergenceStudy
			ok                      bool
		)
		if K, err = strconv.Atoi(ktxt); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if n, err = strconv.Atoi(ntxt); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if l2, err = strconv.ParseFloat(etxt, 64); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		key := StudyKey{Title: title, Order: n}
		if cs, ok = studies[key]; !ok {
			cs = NewConvergenceStudy(title, n)
			studies[key] = cs
		}
		cs.Add(K, l2)
	}
	return
}
