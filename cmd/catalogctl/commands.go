package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"syscat/pkg/catalog"
	"syscat/pkg/catalog/schema"
	"syscat/pkg/catalog/systable"
	"syscat/pkg/dberror"
	"syscat/pkg/primitives"
	"syscat/pkg/trigger"
	"syscat/pkg/types"
)

const timeFormat = "2006-01-02 15:04:05"

func oidString(id primitives.OID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newBootstrapCmd(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "create the catalog tables, or check an existing snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
				objs, err := c.Tables.GetTableObjects(catalog.CatalogDatabaseOID, txn)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "catalog %s ready: %d catalog tables, %d user tables\n",
					c.Engine().ID(), len(objs), len(c.Runtime().Tables()))
				return nil
			})
		},
	}
}

func newDatabaseCmd(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{Use: "database", Short: "manage databases"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "create a database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					id, err := c.CreateDatabase(args[0], txn)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "database %s created with oid %d\n", args[0], id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "list databases",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					dbs, err := c.Databases.All(txn)
					if err != nil {
						return err
					}
					rows := make([][]string, len(dbs))
					for i, db := range dbs {
						rows[i] = []string{oidString(db.OID), db.Name}
					}
					printTable(cmd.OutOrStdout(), []string{"oid", "name"}, rows)
					return nil
				})
			},
		},
	)
	return cmd
}

func newSchemaCmd(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{Use: "schema", Short: "manage namespaces"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "create a namespace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					id, err := c.CreateSchema(args[0], txn)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "schema %s created with oid %d\n", args[0], id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "drop <name>",
			Short: "drop an empty namespace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					ok, err := c.DropSchema(args[0], txn)
					if err != nil {
						return err
					}
					if !ok {
						return dberror.ObjectNotFound("DropSchema", "schema", args[0])
					}
					fmt.Fprintf(cmd.OutOrStdout(), "schema %s dropped\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get [name]",
			Short: "show one namespace, or all of them",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					var objs []*systable.SchemaCatalogObject
					if len(args) == 1 {
						obj, err := c.Schemas.GetSchemaObject(args[0], txn)
						if err != nil {
							return err
						}
						if obj == nil {
							return dberror.ObjectNotFound("GetSchemaObject", "schema", args[0])
						}
						objs = append(objs, obj)
					} else {
						var err error
						if objs, err = c.Schemas.GetSchemaObjects(txn); err != nil {
							return err
						}
					}
					rows := make([][]string, len(objs))
					for i, o := range objs {
						rows[i] = []string{oidString(o.OID), o.Name}
					}
					printTable(cmd.OutOrStdout(), []string{"oid", "name"}, rows)
					return nil
				})
			},
		},
	)
	return cmd
}

// parseColumn reads name:type with an optional :pk or :notnull suffix.
func parseColumn(spec string) (schema.ColumnDef, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return schema.ColumnDef{}, errors.Newf("column %q: want name:type[:pk|:notnull]", spec)
	}
	typ, err := types.ParseType(parts[1])
	if err != nil {
		return schema.ColumnDef{}, errors.Wrapf(err, "column %s", parts[0])
	}
	def := schema.ColumnDef{Name: parts[0], Type: typ}
	if len(parts) == 3 {
		switch strings.ToLower(parts[2]) {
		case "pk":
			def.IsPrimaryKey = true
		case "notnull":
			def.NotNull = true
		default:
			return schema.ColumnDef{}, errors.Newf("column %s: unknown constraint %q", parts[0], parts[2])
		}
	}
	return def, nil
}

func newTableCmd(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{Use: "table", Short: "manage tables"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <db> <schema> <name> <column:type[:pk|:notnull]>...",
			Short: "create a table",
			Args:  cobra.MinimumNArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				defs := make([]schema.ColumnDef, 0, len(args)-3)
				for _, spec := range args[3:] {
					def, err := parseColumn(spec)
					if err != nil {
						return err
					}
					defs = append(defs, def)
				}
				sch, err := schema.BuildColumns(primitives.InvalidOID, args[2], defs...)
				if err != nil {
					return err
				}
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					t, err := c.CreateTable(args[0], args[1], args[2], sch, txn)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s created with oid %d\n", args[0], args[2], t.OID)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "drop <db> <name>",
			Short: "drop a table with its columns, indexes and triggers",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					ok, err := c.DropTable(args[0], args[1], txn)
					if err != nil {
						return err
					}
					if !ok {
						return dberror.TableNotFound("DropTable", args[0]+"."+args[1])
					}
					fmt.Fprintf(cmd.OutOrStdout(), "table %s.%s dropped\n", args[0], args[1])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list <db>",
			Short: "list the tables of a database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					db, err := c.Databases.GetDatabaseObjectByName(args[0], txn)
					if err != nil {
						return err
					}
					if db == nil {
						return dberror.ObjectNotFound("ListTables", "database", args[0])
					}
					objs, err := c.Tables.GetTableObjects(db.OID, txn)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(objs))
					for _, o := range objs {
						sch, err := c.Columns.GetSchema(o.OID, o.Name, txn)
						if err != nil {
							return err
						}
						ns, err := c.Schemas.GetSchemaObjectByOID(o.SchemaOID, txn)
						if err != nil {
							return err
						}
						nsName := oidString(o.SchemaOID)
						if ns != nil {
							nsName = ns.Name
						}
						cols := ""
						if sch != nil {
							cols = sch.TupleDesc.String()
						}
						rows = append(rows, []string{oidString(o.OID), nsName, o.Name, cols})
					}
					printTable(cmd.OutOrStdout(), []string{"oid", "schema", "name", "columns"}, rows)
					return nil
				})
			},
		},
	)
	return cmd
}

func newTriggerCmd(ctx *cliContext) *cobra.Command {
	cmd := &cobra.Command{Use: "trigger", Short: "manage triggers"}

	var (
		timing   string
		level    string
		events   []string
		function string
		args     string
	)
	create := &cobra.Command{
		Use:   "create <db> <table> <name>",
		Short: "create a trigger",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, pos []string) error {
			typ, err := trigger.ParseType(timing, level, events...)
			if err != nil {
				return err
			}
			def := &trigger.Trigger{Name: pos[2], FunctionRef: function, Type: typ, Args: args}
			return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
				id, ok, err := c.CreateTrigger(pos[0], pos[1], def, txn)
				if err != nil {
					return err
				}
				if !ok {
					return dberror.ObjectExists("CreateTrigger", "trigger", pos[2])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "trigger %s created on %s.%s with oid %d\n", pos[2], pos[0], pos[1], id)
				return nil
			})
		},
	}
	f := create.Flags()
	f.StringVar(&timing, "timing", "after", "before, after or instead")
	f.StringVar(&level, "level", "row", "row or statement")
	f.StringSliceVar(&events, "events", []string{"insert"}, "insert, update, delete, truncate")
	f.StringVar(&function, "function", "", "function the trigger calls")
	f.StringVar(&args, "args", "", "arguments passed to the function")

	cmd.AddCommand(
		create,
		&cobra.Command{
			Use:   "drop <db> <table> <name>",
			Short: "drop a trigger",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, pos []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					if err := c.DropTrigger(pos[0], pos[1], pos[2], txn); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "trigger %s dropped from %s.%s\n", pos[2], pos[0], pos[1])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list <db> <table>",
			Short: "list the triggers of a table",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, pos []string) error {
				return ctx.run(cmd, func(c *catalog.Catalog, txn systable.TxContext) error {
					obj, err := c.ResolveTable(pos[0], pos[1], txn)
					if err != nil {
						return err
					}
					if obj == nil {
						return dberror.TableNotFound("ListTriggers", pos[0]+"."+pos[1])
					}
					list, err := c.Triggers.GetTriggers(obj.OID, txn)
					if err != nil {
						return err
					}
					rows := make([][]string, 0, list.Len())
					for _, tg := range list.All() {
						rows = append(rows, []string{
							oidString(tg.OID), tg.Name, tg.Type.String(), tg.FunctionRef,
							tg.Timestamp.Local().Format(timeFormat),
						})
					}
					printTable(cmd.OutOrStdout(), []string{"oid", "name", "type", "function", "created"}, rows)
					return nil
				})
			},
		},
	)
	return cmd
}

func newStatsCmd(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "show row counts per table and the snapshot size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.run(cmd, func(c *catalog.Catalog, _ systable.TxContext) error {
				var rows [][]string
				for _, t := range c.Engine().Tables() {
					s := t.Stats()
					rows = append(rows, []string{
						oidString(t.OID()), t.Name(),
						strconv.Itoa(len(t.Indexes())),
						humanize.Comma(int64(s.Committed)),
						humanize.Comma(int64(s.Pending)),
					})
				}
				w := cmd.OutOrStdout()
				printTable(w, []string{"oid", "table", "indexes", "rows", "pending"}, rows)

				if fi, err := os.Stat(c.Config().Storage.SnapshotPath); err == nil {
					fmt.Fprintf(w, "snapshot %s: %s, written %s\n",
						c.Config().Storage.SnapshotPath,
						humanize.Bytes(uint64(fi.Size())),
						humanize.RelTime(fi.ModTime(), time.Now(), "ago", "from now"))
				}
				return nil
			})
		},
	}
}
