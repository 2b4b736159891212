package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"margins/internal/config"
	"margins/internal/datasource"
	"margins/internal/domain"
	"margins/internal/metrics"
	"margins/internal/metrics/prompush"
	"margins/internal/pipeline"
	"margins/internal/report"

	// register all table sources with the datasource factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "margins/internal/datasource/all"
)

// main is the entry point for the margins binary. It loads the pipeline
// config, optionally initializes a metrics backend, runs the pipeline,
// and renders the projected margin table.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
		listValues        bool
		showFingerprint   bool
		clientFilter      string
		productFilter     string
		periodFilter      string
		groupBy           string
	)

	flag.StringVar(&cfgPath, "config", "configs/margins.json", "pipeline config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&listValues, "list", false, "print distinct clients, products, and periods and exit")
	flag.BoolVar(&showFingerprint, "fingerprint", false, "print the table fingerprint after the report")
	flag.StringVar(&clientFilter, "client", "", "only rows for this client (\"Todos\" for all)")
	flag.StringVar(&productFilter, "product", "", "only rows for this product name (\"Todos\" for all)")
	flag.StringVar(&periodFilter, "period", "", "only rows for this period (\"Todos\" for all)")
	flag.StringVar(&groupBy, "group", "", "output grouping: none, product, product_period, invoice (overrides config)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	if groupBy != "" {
		p.Options.GroupBy = groupBy
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			if *verbose {
				log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, p.Job)
			}
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	src, err := datasource.New(p.Source)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: source=%s strategy=%s group_by=%s period_scoped=%v",
			p.Source.Kind, p.Options.PriceStrategy, p.Options.GroupBy, p.Options.PeriodScoped)
	}

	res, err := pipeline.New(p, src).Run(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if listValues {
		printDistinct(os.Stdout, res.Records)
		return
	}

	rows := report.Project(res.Records, report.Config{
		GroupBy: report.GroupBy(p.Options.GroupBy),
		Filter: report.Filter{
			Client:  clientFilter,
			Product: productFilter,
			Period:  periodFilter,
		},
	})
	printReport(os.Stdout, rows, report.GroupBy(p.Options.GroupBy))

	if showFingerprint {
		fmt.Printf("fingerprint: %016x\n", res.Fingerprint)
	}
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// printReport renders the margin table. Column headers keep the Spanish
// labels the report's consumers expect; costing presence renders as
// Sí/No.
func printReport(w *os.File, rows []domain.MarginRecord, groupBy report.GroupBy) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	defer tw.Flush()

	cols := []string{"MES", "CLIENTE", "CODIGO", "PRODUCTO", "NÚMERO", "CANTIDAD", "PRECIO UNITARIO", "NETO", "COSTO UNITARIO", "COSTO TOTAL", "MARGEN %", "TIENE COSTEO"}
	if groupBy == report.GroupProduct || groupBy == report.GroupProductPeriod {
		// invoice column is meaningless at product granularity
		cols = append(cols[:4], cols[5:]...)
	}
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	for _, m := range rows {
		fields := []string{
			m.Period,
			m.Client,
			m.ProductCode,
			m.ProductName,
			m.Invoice,
			formatFloat(m.Quantity),
			formatPrice(m.UnitPrice),
			formatFloat(m.Net),
			formatFloat(m.UnitCost),
			formatFloat(m.TotalCost),
			fmt.Sprintf("%.1f%%", m.MarginPct*100),
			yesNo(m.HasCosting),
		}
		if groupBy == report.GroupProduct || groupBy == report.GroupProductPeriod {
			fields = append(fields[:4], fields[5:]...)
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t"))
	}
}

func printDistinct(w *os.File, rows []domain.MarginRecord) {
	clients, products, periods := report.Distinct(rows)
	fmt.Fprintf(w, "clients (%d):\n", len(clients))
	for _, c := range clients {
		fmt.Fprintf(w, "  %s\n", c)
	}
	fmt.Fprintf(w, "products (%d):\n", len(products))
	for _, p := range products {
		fmt.Fprintf(w, "  %s\n", p)
	}
	fmt.Fprintf(w, "periods (%d):\n", len(periods))
	for _, p := range periods {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatPrice(f *float64) string {
	if f == nil {
		return "-"
	}
	return formatFloat(*f)
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
